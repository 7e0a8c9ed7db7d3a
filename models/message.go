package models

import (
	"fmt"
	"strings"
)

// Kind discriminates the payload shape of a chat message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindFile  Kind = "file"
	KindAI    Kind = "ai"
)

// Fixed identity used for every AI-authored message. It is never treated as
// "own" for a human session.
const (
	AISenderID   = "ai-bot"
	AISenderName = "Hisbah AI"
)

// Message is an append-only chat record. Log order is the auto-increment ID
// assigned on append; CreatedAt is the sender's clock in epoch milliseconds
// and is used for display only, never for ordering.
type Message struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	Room          string `gorm:"size:80;index;not null" json:"room"`
	SenderID      string `gorm:"size:64;not null" json:"sender_id"`
	SenderName    string `gorm:"size:120" json:"sender_name"`
	Kind          Kind   `gorm:"size:10;not null" json:"kind"`
	Body          string `gorm:"type:text" json:"body,omitempty"`
	AttachmentURL string `gorm:"size:500" json:"attachment_url,omitempty"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio, KindFile, KindAI:
		return true
	}
	return false
}

// IsAttachment reports whether the kind carries an attachment URL instead of
// a text body.
func (k Kind) IsAttachment() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindFile:
		return true
	}
	return false
}

// KindFromContentType classifies a declared MIME type into a message kind.
// Anything outside image/video/audio maps to a generic file.
func KindFromContentType(ct string) Kind {
	major, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(ct)), "/")
	switch major {
	case "image":
		return KindImage
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	}
	return KindFile
}

// Validate enforces the kind/payload coupling: text and ai messages carry a
// body and no attachment; attachment kinds carry a URL and no body.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Room) == "" {
		return fmt.Errorf("message room is required")
	}
	if strings.TrimSpace(m.SenderID) == "" {
		return fmt.Errorf("message sender is required")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	if m.Kind.IsAttachment() {
		if strings.TrimSpace(m.AttachmentURL) == "" {
			return fmt.Errorf("%s message requires an attachment url", m.Kind)
		}
		if m.Body != "" {
			return fmt.Errorf("%s message must not carry a body", m.Kind)
		}
		return nil
	}
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("%s message requires a body", m.Kind)
	}
	if m.AttachmentURL != "" {
		return fmt.Errorf("%s message must not carry an attachment url", m.Kind)
	}
	return nil
}

// OwnedBy reports whether uid authored this message. The AI sentinel is
// never owned, even by itself.
func (m *Message) OwnedBy(uid string) bool {
	if uid == "" || m.SenderID == AISenderID {
		return false
	}
	return m.SenderID == uid
}

// DisplayText renders a one-line textual form of the message, total over all
// kinds so callers never need their own kind switch.
func (m *Message) DisplayText() string {
	switch m.Kind {
	case KindText:
		return m.Body
	case KindAI:
		return fmt.Sprintf("%s: %s", AISenderName, m.Body)
	case KindImage, KindVideo, KindAudio, KindFile:
		return fmt.Sprintf("[%s] %s", m.Kind, m.AttachmentURL)
	default:
		return "[unsupported message]"
	}
}
