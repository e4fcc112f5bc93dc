package api

import (
	"net/http"

	accountDelivery "unibox-backend/internal/account/delivery"
	"unibox-backend/internal/auth/delivery"
	recordDelivery "unibox-backend/internal/record/delivery"
	"unibox-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := delivery.NewAuthHandler(h.authUsecase)
	accountHandler := accountDelivery.NewAccountHandler(h.accountUsecase)
	authRequired := delivery.AuthMiddleware(h.authUsecase)
	limited := ratelimit.Middleware(h.limiter)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited, authHandler.Register)
			auth.POST("/login", limited, authHandler.Login)
			auth.POST("/refresh", limited, authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
			auth.DELETE("/me", authRequired, authHandler.DeleteMe)
		}

		// Linked account routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(authRequired, limited)
		{
			accounts.GET("", accountHandler.ListAccounts)
			accounts.GET("/auth-url", accountHandler.AuthURL)
			accounts.POST("/link", accountHandler.LinkAccount)
			accounts.DELETE("/:accountId", accountHandler.DisconnectAccount)
		}

		events := api.Group("/events")
		events.Use(authRequired, limited)
		setupRecordRoutes(events, recordDelivery.NewRecordHandler(h.eventUsecase), true)

		emails := api.Group("/emails")
		emails.Use(authRequired, limited)
		setupRecordRoutes(emails, recordDelivery.NewRecordHandler(h.emailUsecase), false)
	}
}

// setupRecordRoutes registers the read and sync routes of one record kind,
// plus item writes when the kind supports them.
func setupRecordRoutes(g *gin.RouterGroup, h *recordDelivery.RecordHandler, writable bool) {
	g.GET("", h.Aggregate)
	g.GET("/search", h.Search)
	g.GET("/stats", h.Stats)

	account := g.Group("/accounts/:accountId")
	{
		account.GET("", h.ListForAccount)
		account.GET("/search", h.SearchForAccount)
		account.GET("/items/:itemId", h.GetItem)
		account.POST("/sync", h.Sync)

		if writable {
			account.POST("/items", h.CreateItem)
			account.PUT("/items/:itemId", h.UpdateItem)
			account.DELETE("/items/:itemId", h.DeleteItem)
		}
	}
}
