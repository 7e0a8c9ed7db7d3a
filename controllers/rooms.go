package controllers

import (
	"errors"
	"net/http"
	"strings"

	"HisbahChat/middleware"
	"HisbahChat/pkg/chatlog"
	"HisbahChat/pkg/relay"
	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RoomHistory returns a room's messages in the log's append order.
func RoomHistory(chatLog *chatlog.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := strings.TrimSpace(c.Param("room"))
		if room == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "room is required"})
			return
		}
		msgs, err := chatLog.History(c.Request.Context(), room)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to load messages"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room, "messages": msgs})
	}
}

// SendRoomMessage appends a text message to a room under the caller's
// session identity.
func SendRoomMessage(db *gorm.DB, chatLog *chatlog.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := strings.TrimSpace(c.Param("room"))
		var body struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "message is required"})
			return
		}

		sess, ok := currentSession(c, db)
		if !ok {
			return
		}
		if !middleware.DuplicateGuard(sess.UserID, body.Message) {
			c.JSON(http.StatusTooManyRequests, gin.H{"msg": "duplicate message"})
			return
		}

		r := relay.New(chatLog, nil, sess)
		if err := r.Post(c.Request.Context(), room, body.Message); err != nil {
			if errors.Is(err, relay.ErrNoSession) {
				c.JSON(http.StatusUnauthorized, gin.H{"msg": "no session"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to send message"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"msg": "sent", "room": room})
	}
}

// SendRoomAttachment uploads a multipart file and appends the resulting
// attachment message. Upload failure reports to the caller and appends
// nothing.
func SendRoomAttachment(db *gorm.DB, chatLog *chatlog.Log, store *svc.ObjectStorageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := strings.TrimSpace(c.Param("room"))
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "file is required"})
			return
		}
		defer file.Close()

		sess, ok := currentSession(c, db)
		if !ok {
			return
		}

		r := relay.New(chatLog, store, sess)
		contentType := header.Header.Get("Content-Type")
		if err := r.PostAttachment(c.Request.Context(), room, header.Filename, contentType, file); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "upload failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"msg": "sent", "room": room})
	}
}
