// Package relay mediates between one user's UI intent and the room log. A
// relay holds the authenticated session, the current room subscription, and
// the render surface for that room. Sends never touch the surface directly;
// the sender's own message arrives through the same delivery path as
// everyone else's.
package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"HisbahChat/models"
	"HisbahChat/pkg/chatlog"
)

var (
	ErrNoSession     = errors.New("no authenticated session")
	ErrNotSubscribed = errors.New("no room subscribed")
)

// Session is the authenticated identity all outgoing messages snapshot.
type Session struct {
	UserID string
	Name   string
	Role   string
}

// DefaultRoom is the role-derived room the session lands in after login.
func (s *Session) DefaultRoom() string {
	if s == nil || s.Role == "" {
		return models.DefaultRoom
	}
	return "room_" + s.Role
}

// Uploader stores an attachment and resolves its public URL.
type Uploader interface {
	SaveRoomUpload(room, senderID, filename string, r io.Reader) (string, error)
}

type Relay struct {
	log   *chatlog.Log
	store Uploader
	sess  *Session

	mu        sync.Mutex
	room      string
	sub       *chatlog.Subscription
	surface   []models.Message
	onMessage func(models.Message)
}

func New(log *chatlog.Log, store Uploader, sess *Session) *Relay {
	return &Relay{log: log, store: store, sess: sess}
}

// OnMessage registers the delivery sink. Set it before the first Subscribe;
// it runs on the relay's delivery goroutine, once per message, in append
// order.
func (r *Relay) OnMessage(fn func(models.Message)) {
	r.mu.Lock()
	r.onMessage = fn
	r.mu.Unlock()
}

// Subscribe switches the relay to room. The previous listener is released
// and the render surface is reset to empty before the new room's first
// delivery. Re-subscribing to the current room is a no-op. On failure the
// relay is left unsubscribed with an empty surface.
func (r *Relay) Subscribe(room string) error {
	r.mu.Lock()
	if r.sub != nil && r.room == room {
		r.mu.Unlock()
		return nil
	}
	old := r.sub
	r.sub = nil
	r.room = ""
	r.surface = nil
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}

	sub, err := r.log.Subscribe(room)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.room = room
	r.sub = sub
	r.surface = nil
	r.mu.Unlock()

	go r.consume(sub)
	return nil
}

// consume appends deliveries from sub to the surface. Deliveries for a
// subscription the relay has already moved away from are discarded, so an
// in-flight room's messages never bleed into the next room's view.
func (r *Relay) consume(sub *chatlog.Subscription) {
	for msg := range sub.C {
		r.mu.Lock()
		if r.sub != sub {
			r.mu.Unlock()
			return
		}
		r.surface = append(r.surface, msg)
		fn := r.onMessage
		r.mu.Unlock()
		if fn != nil {
			fn(msg)
		}
	}
}

// Room returns the currently subscribed room id, or "".
func (r *Relay) Room() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room
}

// Surface returns the render surface in delivery order.
func (r *Relay) Surface() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Message, len(r.surface))
	copy(out, r.surface)
	return out
}

// IsOwn reports whether msg should render as the session's own message.
func (r *Relay) IsOwn(msg models.Message) bool {
	if r.sess == nil {
		return false
	}
	return msg.OwnedBy(r.sess.UserID)
}

// SendText appends a text message to the current room. Blank text is a
// silent no-op; a missing session is reported synchronously and nothing is
// sent.
func (r *Relay) SendText(ctx context.Context, text string) error {
	room := r.Room()
	if room == "" {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return ErrNotSubscribed
	}
	return r.Post(ctx, room, text)
}

// Post composes and appends a text message to an explicit room, snapshotting
// the session identity at composition time.
func (r *Relay) Post(ctx context.Context, room, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if r.sess == nil {
		return ErrNoSession
	}
	msg := models.Message{
		Room:       room,
		SenderID:   r.sess.UserID,
		SenderName: r.sess.Name,
		Kind:       models.KindText,
		Body:       text,
		CreatedAt:  time.Now().UnixMilli(),
	}
	return r.log.Append(ctx, &msg)
}

// SendAttachment uploads and appends an attachment message to the current
// room. See PostAttachment.
func (r *Relay) SendAttachment(ctx context.Context, filename, contentType string, data io.Reader) error {
	room := r.Room()
	if room == "" {
		return ErrNotSubscribed
	}
	return r.PostAttachment(ctx, room, filename, contentType, data)
}

// PostAttachment uploads data to the object store under a room-, time- and
// sender-namespaced path, classifies the message kind from the declared
// media type, and appends exactly one message. An upload failure reaches the
// caller and appends nothing.
func (r *Relay) PostAttachment(ctx context.Context, room, filename, contentType string, data io.Reader) error {
	if r.sess == nil {
		return ErrNoSession
	}
	url, err := r.store.SaveRoomUpload(room, r.sess.UserID, filename, data)
	if err != nil {
		return err
	}
	msg := models.Message{
		Room:          room,
		SenderID:      r.sess.UserID,
		SenderName:    r.sess.Name,
		Kind:          models.KindFromContentType(contentType),
		AttachmentURL: url,
		CreatedAt:     time.Now().UnixMilli(),
	}
	return r.log.Append(ctx, &msg)
}

// Close releases the room listener. The relay renders empty until Subscribe
// is called again.
func (r *Relay) Close() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.room = ""
	r.surface = nil
	r.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
