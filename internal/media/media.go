// Package media stores uploaded files and classifies them as image or video.
package media

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	KindImage = "image"
	KindVideo = "video"
)

// Store persists a blob and returns the URL it is served from.
type Store interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}

// Detect sniffs data and returns its media kind and MIME type. kind is empty
// when data is neither an image nor a video.
func Detect(data []byte) (kind, mime string) {
	m := mimetype.Detect(data)
	mime = m.String()
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage, mime
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, mime
	default:
		return "", mime
	}
}

// objectName returns a fresh, collision-free name keeping the extension
// matching contentType.
func objectName(data []byte, contentType string) string {
	ext := ""
	if m := mimetype.Lookup(baseType(contentType)); m != nil {
		ext = m.Extension()
	} else {
		ext = mimetype.Detect(data).Extension()
	}
	return uuid.NewString() + ext
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}
