package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/media"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const (
	MaxUploadFiles     = 5
	MaxUploadFileBytes = 10 << 20
)

type UploadedFile struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// MediaHandler accepts image and video uploads for use in posts.
type MediaHandler struct {
	store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/media/upload", h.Upload)
}

// Upload stores every multipart "files" part. The whole request is rejected
// when any part is too large or is neither an image nor a video.
func (h *MediaHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.NewValidationError("files are required")
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		return models.NewValidationError("files are required")
	}
	if len(parts) > MaxUploadFiles {
		return models.NewValidationError(fmt.Sprintf("At most %d files can be uploaded at once", MaxUploadFiles))
	}

	type pending struct {
		data []byte
		kind string
		mime string
	}
	files := make([]pending, 0, len(parts))
	for _, part := range parts {
		if part.Size > MaxUploadFileBytes {
			return models.NewValidationError(fmt.Sprintf("%s exceeds the 10 MB limit", part.Filename))
		}
		src, err := part.Open()
		if err != nil {
			return models.NewValidationError(fmt.Sprintf("%s could not be read", part.Filename))
		}
		data, err := io.ReadAll(io.LimitReader(src, MaxUploadFileBytes+1))
		src.Close()
		if err != nil {
			return models.NewValidationError(fmt.Sprintf("%s could not be read", part.Filename))
		}
		if len(data) > MaxUploadFileBytes {
			return models.NewValidationError(fmt.Sprintf("%s exceeds the 10 MB limit", part.Filename))
		}
		kind, mime := media.Detect(data)
		if kind == "" {
			return models.NewValidationError(fmt.Sprintf("%s is not an image or video", part.Filename))
		}
		files = append(files, pending{data: data, kind: kind, mime: mime})
	}

	uploaded := make([]UploadedFile, 0, len(files))
	for _, f := range files {
		url, err := h.store.Save(c.Request().Context(), f.data, f.mime)
		if err != nil {
			return models.NewStorageError(err)
		}
		uploaded = append(uploaded, UploadedFile{URL: url, Type: f.kind})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "files": uploaded})
}
