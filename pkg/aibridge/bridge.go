// Package aibridge forwards prompts to the AI proxy endpoint and relays the
// reply into the room log as a message indistinguishable in transport from a
// human one, tagged kind "ai" under the fixed sentinel identity. Upstream
// failure is never surfaced to the chat UI; the conversation stream gets a
// fallback apology instead.
package aibridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"HisbahChat/models"
	"HisbahChat/pkg/cache"
	"HisbahChat/pkg/chatlog"
	"HisbahChat/pkg/config"
)

// FallbackReply is appended whenever the proxy round trip fails.
const FallbackReply = "Sorry — AI is unavailable right now."

// replyFields is the ordered set of response fields the bridge accepts.
var replyFields = []string{"reply", "result", "message"}

type Bridge struct {
	endpoint string
	lang     string
	client   *http.Client
	log      *chatlog.Log
	cache    *cache.Cache
	cacheTTL time.Duration
}

func New(chatLog *chatlog.Log) *Bridge {
	return &Bridge{
		endpoint: config.AIProxyURL,
		lang:     "bilingual",
		client:   &http.Client{Timeout: time.Duration(config.AIBridgeTimeoutSeconds) * time.Second},
		log:      chatLog,
		cache:    cache.Default(),
		cacheTTL: time.Duration(config.AIReplyCacheTTLSeconds) * time.Second,
	}
}

// Ask posts prompt to the proxy and appends exactly one ai-kind message to
// room: the real reply on success, FallbackReply on any failure. An empty
// prompt is a no-op.
func (b *Bridge) Ask(ctx context.Context, prompt, room string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	reply := b.cachedReply(prompt)
	if reply == "" {
		text, err := b.query(ctx, prompt)
		if err != nil {
			log.Printf("[aibridge] proxy call failed: %v", err)
			text = FallbackReply
		} else if b.cache != nil {
			b.cache.Set(replyKey(prompt), text, b.cacheTTL)
		}
		reply = text
	}

	msg := models.Message{
		Room:       room,
		SenderID:   models.AISenderID,
		SenderName: models.AISenderName,
		Kind:       models.KindAI,
		Body:       reply,
		CreatedAt:  time.Now().UnixMilli(),
	}
	return b.log.Append(ctx, &msg)
}

func (b *Bridge) cachedReply(prompt string) string {
	if b.cache == nil {
		return ""
	}
	if v, ok := b.cache.Get(replyKey(prompt)); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}
	return ""
}

func replyKey(prompt string) string {
	return cache.KeyFromStrings("ai-reply", strings.ToLower(prompt))
}

// query performs the single proxy round trip. No retries; the client timeout
// bounds a hung proxy.
func (b *Bridge) query(ctx context.Context, prompt string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"message": prompt,
		"lang":    b.lang,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	for _, f := range replyFields {
		if s, ok := parsed[f].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), nil
		}
	}
	return "", fmt.Errorf("no recognized reply field in proxy response")
}
