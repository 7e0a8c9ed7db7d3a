package routes

import (
	"net/http"

	"HisbahChat/middleware"
	"HisbahChat/pkg/chatlog"
	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	askRoutes "HisbahChat/routes/ask"
	authRoutes "HisbahChat/routes/auth"
	profileRoutes "HisbahChat/routes/profile"
	roomRoutes "HisbahChat/routes/rooms"
	uploadsRoutes "HisbahChat/routes/uploads"
	websocketRoutes "HisbahChat/routes/websocket"
)

// Deps carries the shared services the route handlers close over.
type Deps struct {
	DB      *gorm.DB
	ChatLog *chatlog.Log
	Store   *svc.ObjectStorageService
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Hisbah chat backend running"})
	})

	uploadsRoutes.Register(r)
	websocketRoutes.Register(r, d.DB, d.ChatLog, d.Store)
	authRoutes.RegisterPublic(r, d.DB)
	askRoutes.Register(r)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected, d.DB)
	profileRoutes.Register(protected, d.DB)
	roomRoutes.Register(protected, d.DB, d.ChatLog, d.Store)
}
