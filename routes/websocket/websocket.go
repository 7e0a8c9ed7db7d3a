package websocket

import (
	"HisbahChat/controllers"
	"HisbahChat/middleware"
	"HisbahChat/pkg/chatlog"
	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(r *gin.Engine, db *gorm.DB, chatLog *chatlog.Log, store *svc.ObjectStorageService) {
	r.GET("/ws/rooms", middleware.RateLimit(), controllers.RoomWS(db, chatLog, store))
}
