package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"HisbahChat/pkg/config"

	"github.com/google/uuid"
)

// ObjectStorageService stores room attachments on local disk and hands back
// dereferenceable URLs served from the /uploads static route.
type ObjectStorageService struct {
	basePath string
	baseURL  string
	maxBytes int64
}

func NewObjectStorageService() *ObjectStorageService {
	basePath := "./uploads"
	os.MkdirAll(basePath, 0755)

	return &ObjectStorageService{
		basePath: basePath,
		baseURL:  strings.TrimRight(config.PublicBaseURL, "/") + "/uploads",
		maxBytes: config.UploadMaxBytes,
	}
}

// SaveRoomUpload streams an attachment into
// uploads/{room}/{timestamp}_{senderID}{ext} and returns its public URL.
// Sender id in the name keeps concurrent same-millisecond uploads by
// different senders apart; a same-sender clash within one millisecond falls
// back to a uuid-suffixed name instead of overwriting.
func (s *ObjectStorageService) SaveRoomUpload(room, senderID, filename string, r io.Reader) (string, error) {
	room = sanitizeSegment(room)
	senderID = sanitizeSegment(senderID)
	if room == "" || senderID == "" {
		return "", fmt.Errorf("invalid room or sender for upload")
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	roomDir := filepath.Join(s.basePath, room)
	if err := os.MkdirAll(roomDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	ts := time.Now().UnixMilli()
	name := fmt.Sprintf("%d_%s%s", ts, senderID, ext)
	dst, err := os.OpenFile(filepath.Join(roomDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		name = fmt.Sprintf("%d_%s_%s%s", ts, senderID, uuid.NewString()[:8], ext)
		dst, err = os.OpenFile(filepath.Join(roomDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(filepath.Join(roomDir, name))
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(filepath.Join(roomDir, name))
		return "", fmt.Errorf("file too large. Maximum size is %d bytes", s.maxBytes)
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, room, name)
	log.Printf("[storage] saved %d bytes to %s/%s", written, room, name)
	return url, nil
}

// sanitizeSegment rejects anything that could escape the uploads tree.
func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	if seg == "" || seg == "." || seg == ".." {
		return ""
	}
	if strings.ContainsAny(seg, "/\\") {
		return ""
	}
	return seg
}
