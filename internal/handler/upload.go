package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/storelink/chat-server-go/internal/config"
	apperrors "github.com/storelink/chat-server-go/internal/errors"
	"github.com/storelink/chat-server-go/internal/middleware"
	"github.com/storelink/chat-server-go/internal/model"
)

// UploadHandler stores an attachment on local disk and returns the metadata
// the client then references from a send request.
type UploadHandler struct {
	dir     string
	baseURL string
}

func NewUploadHandler(dir, baseURL string) *UploadHandler {
	return &UploadHandler{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		writeError(w, apperrors.InvalidInput("file", "multipart body missing or too large"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", h.dir).Msg("upload: cannot create upload dir")
		writeError(w, apperrors.Internal("Upload storage unavailable"))
		return
	}

	// Client-supplied names never touch the filesystem path.
	storedName := uuid.NewString() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(h.dir, storedName))
	if err != nil {
		log.Error().Err(err).Msg("upload: cannot create file")
		writeError(w, apperrors.Internal("Upload storage unavailable"))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		log.Error().Err(err).Msg("upload: write failed")
		writeError(w, apperrors.Internal("Upload failed"))
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}

	attachment := model.Attachment{
		URL:  h.baseURL + "/" + storedName,
		Name: filepath.Base(header.Filename),
		Mime: mime,
	}

	log.Info().
		Str("userId", userID).
		Str("file", storedName).
		Int64("size", header.Size).
		Msg("attachment uploaded")

	writeJSON(w, http.StatusCreated, attachment)
}
