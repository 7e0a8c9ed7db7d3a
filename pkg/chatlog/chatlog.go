// Package chatlog is an append-only, per-room message log with push-based
// subscriber notification. Append order is assigned by the log itself
// (auto-increment id) and is the only authoritative order inside a room;
// sender clocks are carried along for display but never re-order anything.
package chatlog

import (
	"context"
	"fmt"
	"log"
	"sync"

	"HisbahChat/models"

	"gorm.io/gorm"
)

// liveBuffer is the headroom a subscriber gets beyond the replayed history.
// A subscriber that falls this far behind is dropped rather than blocking
// appends for every other room member.
const liveBuffer = 256

type Log struct {
	db *gorm.DB

	// mu serializes appends with subscribe/close so that replay and live
	// delivery never duplicate or drop a message.
	mu   sync.Mutex
	subs map[string][]*Subscription
}

// Subscription delivers one room's messages in append order: every stored
// message once, then every later append exactly once. C is closed when the
// subscription is released or the subscriber is dropped as too slow.
type Subscription struct {
	Room string
	C    <-chan models.Message

	ch   chan models.Message
	log  *Log
	once sync.Once
}

func New(db *gorm.DB) *Log {
	return &Log{db: db, subs: make(map[string][]*Subscription)}
}

// Append validates and durably writes msg, then notifies every subscriber of
// msg.Room. Rooms are never created explicitly; the first append brings one
// into existence.
func (l *Log) Append(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("append to room %s: %w", msg.Room, err)
	}
	var dropped []*Subscription
	for _, s := range l.subs[msg.Room] {
		select {
		case s.ch <- *msg:
		default:
			// slow consumer; drop it instead of stalling the room
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		log.Printf("[chatlog] dropping slow subscriber of room %s", msg.Room)
		l.removeLocked(s)
		s.once.Do(func() { close(s.ch) })
	}
	return nil
}

// History returns the room's stored messages in append order.
func (l *Log) History(ctx context.Context, room string) ([]models.Message, error) {
	var msgs []models.Message
	if err := l.db.WithContext(ctx).Where("room = ?", room).Order("id asc").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("history of room %s: %w", room, err)
	}
	return msgs, nil
}

// Subscribe registers a listener on room. The returned subscription's channel
// first replays all stored messages, then carries live appends. Close must be
// called to release the listener.
func (l *Log) Subscribe(room string) (*Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var existing []models.Message
	if err := l.db.Where("room = ?", room).Order("id asc").Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("subscribe to room %s: %w", room, err)
	}

	// Buffer covers the full replay plus live headroom, so replay never
	// blocks while the lock is held.
	ch := make(chan models.Message, len(existing)+liveBuffer)
	sub := &Subscription{Room: room, C: ch, ch: ch, log: l}
	for _, m := range existing {
		ch <- m
	}
	l.subs[room] = append(l.subs[room], sub)
	return sub, nil
}

// Close releases the listener. No messages are delivered after Close returns
// and the channel is closed. Safe to call more than once.
func (s *Subscription) Close() {
	s.log.mu.Lock()
	s.log.removeLocked(s)
	s.log.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// removeLocked unlinks sub from its room; caller must hold l.mu.
func (l *Log) removeLocked(sub *Subscription) {
	subs := l.subs[sub.Room]
	for i, s := range subs {
		if s == sub {
			l.subs[sub.Room] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(l.subs[sub.Room]) == 0 {
		delete(l.subs, sub.Room)
	}
}
