package transport

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/pushService/internal/transport/middleware"
)

func InitRoutes(subscriptionHandler *SubscriptionHandler, pushHandler *PushHandler, vapidPublicKey string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/subscribe", subscriptionHandler.Subscribe)
		api.POST("/unsubscribe", subscriptionHandler.Unsubscribe)
		api.GET("/subscriptions", subscriptionHandler.GetSubscriptions)
		api.POST("/send", pushHandler.Send)

		// Clients need the application server key to subscribe with.
		api.GET("/vapid-public-key", func(c *gin.Context) {
			c.JSON(200, gin.H{"public_key": vapidPublicKey})
		})
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   "push-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return router
}
