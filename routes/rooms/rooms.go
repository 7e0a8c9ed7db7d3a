package rooms

import (
	"HisbahChat/controllers"
	"HisbahChat/middleware"
	"HisbahChat/pkg/chatlog"
	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers room routes (protected). Sends are rate limited; reads
// are not.
func Register(g *gin.RouterGroup, db *gorm.DB, chatLog *chatlog.Log, store *svc.ObjectStorageService) {
	g.GET("/rooms/:room/messages", controllers.RoomHistory(chatLog))
	g.POST("/rooms/:room/messages", middleware.RateLimit(), controllers.SendRoomMessage(db, chatLog))
	g.POST("/rooms/:room/attachments", middleware.RateLimit(), controllers.SendRoomAttachment(db, chatLog, store))
}
