package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"membership-api/internal/auth"
	"membership-api/internal/httpx"
	"membership-api/internal/members"
)

const (
	maxUploadSizeBytes = 10 << 20
)

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (UploadResult, error)
}

type PhotoStore interface {
	AddPhoto(ctx context.Context, username string, photo members.NewPhoto) (members.Photo, error)
}

type PhotoHandler struct {
	uploader ImageUploader
	store    PhotoStore
}

// NewPhotoHandler accepts a nil uploader; uploads then answer 503.
func NewPhotoHandler(uploader ImageUploader, store PhotoStore) *PhotoHandler {
	return &PhotoHandler{uploader: uploader, store: store}
}

func (h *PhotoHandler) AddPhoto(w http.ResponseWriter, r *http.Request) error {
	if h.uploader == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "image uploader is not configured")
		return nil
	}

	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok || claims.Username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username not found in token")
		return nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSizeBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "file is required")
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read file")
		return nil
	}
	if len(data) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "file is empty")
		return nil
	}
	if len(data) > maxUploadSizeBytes {
		httpx.WriteError(w, http.StatusBadRequest, "file is too large")
		return nil
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		httpx.WriteError(w, http.StatusBadRequest, "file must be an image")
		return nil
	}

	imageSource := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	uploaded, err := h.uploader.UploadImage(r.Context(), imageSource)
	if err != nil {
		httpx.WriteError(w, http.StatusBadGateway, "failed to upload image")
		return nil
	}

	photo, err := h.store.AddPhoto(r.Context(), claims.Username, members.NewPhoto{
		URL:      uploaded.SecureURL,
		PublicID: uploaded.PublicID,
	})
	if err != nil {
		if errors.Is(err, members.ErrNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, "user not found")
			return nil
		}
		return err
	}

	httpx.WriteJSON(w, http.StatusCreated, members.NewPhotoDTO(photo))
	return nil
}
