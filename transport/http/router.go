package http

import (
	"github.com/gin-gonic/gin"

	"github.com/calyx-labs/rolodex/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(
	auth *service.AuthService,
	directory *service.DirectoryService,
	personaShare *service.PersonaShareService,
	contactShare *service.ContactShareService,
) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(auth, directory, personaShare, contactShare)

	// Credential routes
	router.POST("/register", handlers.Register)
	router.POST("/login", handlers.Login)
	router.POST("/logout", handlers.Logout)
	router.POST("/reauth", handlers.Reauth)

	// Protected routes
	api := router.Group("/")
	api.Use(AuthMiddleware(auth))
	{
		api.GET("/me", handlers.Me)

		api.GET("/contacts", handlers.Contacts)
		api.POST("/contacts", handlers.AddContacts)
		api.DELETE("/contacts/:id", handlers.DeleteContact)

		api.GET("/personas", handlers.Personas)
		api.POST("/personas", handlers.AddPersona)
		api.GET("/users/:id/personas", handlers.PersonasOfUser)

		api.GET("/info/:contact", handlers.Info)
		api.POST("/info/:contact", handlers.PutInfo)
		api.DELETE("/info/:contact", handlers.DeleteInfo)

		api.POST("/share/persona/:id", handlers.SharePersona)
		api.POST("/share/contact/:id", handlers.ShareContact)
		api.POST("/redeem", handlers.Redeem)
	}

	return router
}
