package main

import (
	"context"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/calyx-labs/rolodex/adapters/blacklist"
	"github.com/calyx-labs/rolodex/adapters/events"
	"github.com/calyx-labs/rolodex/adapters/repository"
	"github.com/calyx-labs/rolodex/adapters/tokenizer"
	"github.com/calyx-labs/rolodex/config"
	"github.com/calyx-labs/rolodex/ports"
	"github.com/calyx-labs/rolodex/service"
	"github.com/calyx-labs/rolodex/transport/http"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "rolodex",
	})

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	ctx := context.Background()

	repo, err := repository.NewSQLiteRepository(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", "error", err, "path", cfg.DatabasePath)
	}
	defer repo.Close()

	// With Redis configured, revocations and events are shared across
	// instances; without it, both stay in-process.
	var revocations ports.Blacklist
	var publisher message.Publisher

	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse Redis URL", "error", err)
		}
		redisClient := redis.NewClient(opts)

		revocations = blacklist.NewRedisBlacklist(redisClient)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			wmLogger,
		)
		if err != nil {
			logger.Fatal("failed to create Redis publisher", "error", err)
		}

		logger.Info("using Redis-backed revocation list and event stream")
	} else {
		revocations = blacklist.NewMemoryBlacklist(logger)
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)

		logger.Info("using in-memory revocation list")
	}

	codec := tokenizer.NewJWTTokenizer([]byte(cfg.SigningSecret))
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(codec, revocations, repo, eventPub, logger)
	dirService := service.NewDirectoryService(repo)
	personaShare := service.NewPersonaShareService(codec, repo, eventPub, logger)
	contactShare := service.NewContactShareService(codec, repo, eventPub, logger)

	router := http.SetupRouter(authService, dirService, personaShare, contactShare)

	logger.Info("starting server", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to start server", "error", err)
	}
}
