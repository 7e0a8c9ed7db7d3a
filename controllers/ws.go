package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"HisbahChat/middleware"
	"HisbahChat/models"
	"HisbahChat/pkg/aibridge"
	"HisbahChat/pkg/chatlog"
	"HisbahChat/pkg/relay"
	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsClientPayload struct {
	Type   string `json:"type"`
	Room   string `json:"room"`
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
}

// wsConn serializes writes; gorilla connections allow one writer at a time
// and deliveries race with read-loop replies.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// RoomWS is the realtime chat surface. One relay per connection.
// Client protocol (JSON messages):
//
//	-> {type: "join", room: string}
//	-> {type: "send", text: string}
//	-> {type: "ask", prompt: string}
//	<- {type: "joined", room: string}
//	<- {type: "message", message: {...}, own: bool}
//	<- {type: "error", error: string}
//
// The connection lands in ?room= or the session's role-derived room. Every
// delivery, including the sender's own and AI replies, arrives through the
// room subscription.
func RoomWS(db *gorm.DB, chatLog *chatlog.Log, store *svc.ObjectStorageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authenticate via ?token=JWT
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		userID, _, err := middleware.ValidateToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}

		uid, _ := strconv.Atoi(userID)
		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			// profile row gone while the token still verifies; fatal session
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Account not found, please register again"})
			return
		}
		sess := &relay.Session{UserID: userID, Name: user.DisplayName(), Role: user.Role}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		wc := &wsConn{conn: conn}
		r := relay.New(chatLog, store, sess)
		defer r.Close()
		r.OnMessage(func(m models.Message) {
			if err := wc.writeJSON(gin.H{"type": "message", "message": m, "own": r.IsOwn(m)}); err != nil {
				log.Printf("[ws] delivery write error: %v", err)
			}
		})
		bridge := aibridge.New(chatLog)

		join := func(room string) {
			room = strings.TrimSpace(room)
			if room == "" {
				room = sess.DefaultRoom()
			}
			if err := r.Subscribe(room); err != nil {
				log.Printf("[ws] subscribe %s failed: %v", room, err)
				_ = wc.writeJSON(gin.H{"type": "error", "error": "failed to join room"})
				return
			}
			_ = wc.writeJSON(gin.H{"type": "joined", "room": room})
		}
		join(c.Query("room"))

		var asks sync.WaitGroup
		defer asks.Wait()

		for {
			if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
				return
			}
			mt, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}
			var msg wsClientPayload
			if err := json.Unmarshal(raw, &msg); err != nil {
				_ = wc.writeJSON(gin.H{"type": "error", "error": "invalid payload"})
				continue
			}

			switch strings.ToLower(strings.TrimSpace(msg.Type)) {
			case "join":
				join(msg.Room)
			case "send":
				if strings.TrimSpace(msg.Text) != "" && !middleware.DuplicateGuard(sess.UserID, msg.Text) {
					_ = wc.writeJSON(gin.H{"type": "error", "error": "duplicate message"})
					continue
				}
				if err := r.SendText(c.Request.Context(), msg.Text); err != nil {
					_ = wc.writeJSON(gin.H{"type": "error", "error": "failed to send message"})
				}
			case "ask":
				prompt := strings.TrimSpace(msg.Prompt)
				if prompt == "" {
					continue
				}
				room := r.Room()
				if room == "" {
					_ = wc.writeJSON(gin.H{"type": "error", "error": "no room joined"})
					continue
				}
				// the user's prompt lands in the room as a normal text message
				if err := r.SendText(c.Request.Context(), prompt); err != nil {
					_ = wc.writeJSON(gin.H{"type": "error", "error": "failed to send message"})
					continue
				}
				asks.Add(1)
				go func() {
					defer asks.Done()
					release := middleware.AcquireUserSlot(sess.UserID)
					defer release()
					// detached from the request context; the bridge's own
					// timeout bounds the call and the reply is appended to
					// the room whether or not this socket is still open
					if err := bridge.Ask(context.Background(), prompt, room); err != nil {
						log.Printf("[ws] ai append failed: %v", err)
					}
				}()
			default:
				_ = wc.writeJSON(gin.H{"type": "error", "error": "unknown message type"})
			}
		}
	}
}
