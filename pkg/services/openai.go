package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"HisbahChat/pkg/config"
)

// OpenAIService shapes stateless chat-completion calls: one fixed system
// instruction plus a single user turn, no conversation history.
type OpenAIService struct {
	apiKey  string
	model   string
	baseURL string
	enabled bool
}

var ErrAIDisabled = errors.New("ai is disabled via config")

func NewOpenAIService() *OpenAIService {
	return &OpenAIService{
		apiKey:  config.OpenAIAPIKey,
		model:   config.OpenAIModel,
		baseURL: config.OpenAIBaseURL,
		enabled: config.IsAIEnabled,
	}
}

// SystemInstruction returns the fixed assistant persona. The bilingual
// variant asks for a short Hausa reply followed by an English translation.
func SystemInstruction(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), "bilingual") {
		return "You are Hisbah Assistant. Reply in Hausa and English both. First give a short Hausa reply, then English translation. Be concise and helpful and stick to community guidance."
	}
	return "You are Hisbah AI, an Islamic and ethical assistant."
}

// Complete sends one user turn under the given system instruction and returns
// the reply text. A missing API key fails closed without calling upstream.
func (s *OpenAIService) Complete(ctx context.Context, system, user string) (string, error) {
	if !s.enabled {
		log.Printf("[openai] disabled via config (IsAIEnabled=false)")
		return "", ErrAIDisabled
	}
	if strings.TrimSpace(s.apiKey) == "" {
		log.Printf("[openai] OPENAI_API_KEY is not set")
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}

	text, err := s.callChatCompletion(ctx, system, user)
	if err != nil && isRetriable(err) {
		sleepWithContext(ctx, 2*time.Second)
		text, err = s.callChatCompletion(ctx, system, user)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion from model %s", s.model)
	}
	return strings.TrimSpace(text), nil
}

func (s *OpenAIService) callChatCompletion(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]any{
		"model": s.model,
		"messages": []any{
			map[string]any{"role": "system", "content": system},
			map[string]any{"role": "user", "content": user},
		},
		"max_tokens":  500,
		"temperature": 0.2,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	url := strings.TrimRight(s.baseURL, "/") + "/chat/completions"
	log.Printf("[openai] using model %s", s.model)
	log.Printf("[openai] POST %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	if choices, ok := parsed["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if msg, ok := first["message"].(map[string]any); ok {
				if txt, ok := msg["content"].(string); ok && strings.TrimSpace(txt) != "" {
					return txt, nil
				}
			}
			// legacy completions shape
			if txt, ok := first["text"].(string); ok && strings.TrimSpace(txt) != "" {
				return txt, nil
			}
		}
	}
	return "", fmt.Errorf("no completion text in response")
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	if strings.Contains(e, "status 503") || strings.Contains(e, "unavailable") {
		return true
	}
	if strings.Contains(e, "status 429") || strings.Contains(e, "rate_limit") || strings.Contains(e, "quota") {
		return true
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
