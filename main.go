package main

import (
	"log"
	"net/http"

	"food-ordering-api/config"
	"food-ordering-api/events"
	"food-ordering-api/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	gin.SetMode(config.Cfg.GinMode)

	config.InitDB()

	if err := events.Init(config.Cfg.AMQPURL, config.Cfg.EventsExchange); err != nil {
		// Eventing is optional; the polling API stays the contract.
		log.Printf("Event publishing disabled: %v", err)
	}
	defer events.Default.Close()

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for the dashboard frontends
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Ordering Management API",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(r)

	log.Printf("Server running on http://localhost:%s", config.Cfg.Port)
	if err := r.Run(":" + config.Cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
