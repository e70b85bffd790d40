package ports

import (
	"context"

	"github.com/calyx-labs/rolodex/core"
)

// Blacklist tracks tokens that must be rejected even though not yet
// expired. Inserting an already-present token is a harmless duplicate.
type Blacklist interface {
	Insert(ctx context.Context, entry core.RevokedToken) error
	Contains(ctx context.Context, rawToken string) (bool, error)
}
