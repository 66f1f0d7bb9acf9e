package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/storelink/chat-server-go/internal/chat"
	"github.com/storelink/chat-server-go/internal/middleware"
	"github.com/storelink/chat-server-go/internal/ws"
)

// ChatHandler upgrades an authenticated request to a WebSocket session and
// attaches it to the chat service.
type ChatHandler struct {
	svc      *chat.Service
	upgrader websocket.Upgrader
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Token auth already gates this endpoint; the socket is not
			// cookie-authenticated, so cross-origin pages gain nothing.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	openPeerID := r.URL.Query().Get("peer")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn().Err(err).Str("userId", userID).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, userID, h.svc)

	if err := h.svc.Connect(r.Context(), userID, client, openPeerID); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("connect rejected")
		conn.Close()
		return
	}

	client.Run(r.Context())
}
