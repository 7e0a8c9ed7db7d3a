package main

import (
	"log"
	"time"

	"HisbahChat/models"
	"HisbahChat/pkg/cache"
	"HisbahChat/pkg/chatlog"
	"HisbahChat/pkg/config"
	svc "HisbahChat/pkg/services"
	"HisbahChat/routes"

	"HisbahChat/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// config init via package init()

	// init DB (sqlite in same folder)
	db, err := gorm.Open(sqlite.Open("app.db"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// auto-migrate
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	// apply runtime tunables
	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
		config.UserConcurrencyLimit,
	)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)
	cache.SetMaxItems(config.AIReplyCacheMaxItems)

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		ChatLog: chatlog.New(db),
		Store:   svc.NewObjectStorageService(),
	})
	r.Run(":" + config.Port)
}
