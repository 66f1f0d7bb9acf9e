package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/storelink/chat-server-go/internal/errors"
	"github.com/storelink/chat-server-go/internal/middleware"
)

const askTimeout = 30 * time.Second

// AskHandler forwards a question to the external assistant endpoint and
// relays its answer verbatim.
type AskHandler struct {
	endpoint string
	client   *http.Client
}

func NewAskHandler(endpoint string) *AskHandler {
	return &AskHandler{
		endpoint: endpoint,
		client:   &http.Client{Timeout: askTimeout},
	}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if h.endpoint == "" {
		writeError(w, apperrors.New(apperrors.ErrCodeExternal, "Assistant is not configured"))
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Question == "" {
		writeError(w, apperrors.MissingRequired("question"))
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		writeError(w, apperrors.Internal("Failed to encode request"))
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		writeError(w, apperrors.Internal("Failed to build upstream request"))
		return
	}
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(upstream)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("ask: upstream request failed")
		writeError(w, apperrors.External("assistant", err))
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Warn().Err(err).Msg("ask: relay interrupted")
	}
}
