package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/storelink/chat-server-go/internal/chat"
	"github.com/storelink/chat-server-go/internal/config"
	apperrors "github.com/storelink/chat-server-go/internal/errors"
	"github.com/storelink/chat-server-go/internal/model"
	"github.com/storelink/chat-server-go/internal/push"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// Frame is one client-to-server command over the socket.
type Frame struct {
	Op                string            `json:"op"`
	RecipientID       string            `json:"recipientId,omitempty"`
	RecipientUsername string            `json:"recipientUsername,omitempty"`
	Content           string            `json:"content,omitempty"`
	Attachment        *model.Attachment `json:"attachment,omitempty"`
	MessageID         int64             `json:"messageId,omitempty"`
	PeerID            string            `json:"peerId,omitempty"`
	PageIndex         int               `json:"pageIndex,omitempty"`
	PageSize          int               `json:"pageSize,omitempty"`
}

// Client operations accepted on the socket.
const (
	OpSend        = "send"
	OpEdit        = "edit"
	OpDelete      = "delete"
	OpMarkRead    = "mark-read"
	OpMarkAllRead = "mark-all-read"
	OpTyping      = "typing"
	OpLoad        = "load"
)

// Client is one live WebSocket connection for a user. Events are queued on a
// buffered channel and written by a single writer goroutine; the read side
// drives the chat service.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	svc    *chat.Service
	events chan push.Event
	done   chan struct{}
}

func NewClient(conn *websocket.Conn, userID string, svc *chat.Service) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		svc:    svc,
		events: make(chan push.Event, config.EventBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Deliver queues an event without blocking. It reports false when the client
// is gone or its buffer is full; the caller decides whether that matters.
func (c *Client) Deliver(ev push.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Run blocks until the connection is gone, servicing both pumps. The session
// is deregistered before Run returns.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.svc.Disconnect(ctx, c.userID, c.id)
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("userId", c.userID).Str("connId", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		if err := c.dispatch(ctx, frame); err != nil {
			c.sendError(frame.Op, err)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, frame Frame) error {
	switch frame.Op {
	case OpSend:
		_, err := c.svc.SendMessage(ctx, c.userID, chat.SendMessageRequest{
			RecipientID: frame.RecipientID,
			Content:     frame.Content,
			Attachment:  frame.Attachment,
		})
		return err

	case OpEdit:
		_, err := c.svc.EditMessage(ctx, c.userID, frame.MessageID, frame.Content)
		return err

	case OpDelete:
		return c.svc.DeleteMessage(ctx, c.userID, frame.MessageID)

	case OpMarkRead:
		return c.svc.MarkMessageAsRead(ctx, c.userID, frame.MessageID)

	case OpMarkAllRead:
		_, err := c.svc.MarkAllMessagesAsRead(ctx, c.userID, frame.PeerID)
		return err

	case OpTyping:
		return c.svc.NotifyTyping(ctx, c.userID, frame.RecipientUsername)

	case OpLoad:
		page, err := c.svc.LoadMessages(ctx, c.userID, frame.PeerID, frame.PageIndex, frame.PageSize)
		if err != nil {
			return err
		}
		c.Deliver(push.History(page))
		return nil

	default:
		return apperrors.InvalidInput("op", "unknown operation")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			// Drain whatever was queued before the reader went away.
			for {
				select {
				case ev := <-c.events:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteJSON(ev); err != nil {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) sendError(op string, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("unexpected error")
	}

	payload, marshalErr := json.Marshal(map[string]string{
		"op":      op,
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
	if marshalErr != nil {
		return
	}

	if !c.Deliver(push.Event{Type: "error", Data: payload}) {
		log.Warn().
			Str("userId", c.userID).
			Str("connId", c.id).
			Str("code", string(appErr.Code)).
			Msg("dropping error event, client buffer full")
	}
}
