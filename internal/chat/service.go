package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelink/chat-server-go/internal/config"
	apperrors "github.com/storelink/chat-server-go/internal/errors"
	"github.com/storelink/chat-server-go/internal/model"
	"github.com/storelink/chat-server-go/internal/presence"
	"github.com/storelink/chat-server-go/internal/push"
	"github.com/storelink/chat-server-go/internal/repository"
)

type SendMessageRequest struct {
	RecipientID string            `json:"recipientId"`
	Content     string            `json:"content"`
	Attachment  *model.Attachment `json:"attachment,omitempty"`
}

// MessagePage is one window of conversation history, items in chronological
// order.
type MessagePage struct {
	PageIndex  int             `json:"pageIndex"`
	PageSize   int             `json:"pageSize"`
	TotalCount int             `json:"totalCount"`
	Items      []model.Message `json:"items"`
}

// Service is the operation surface of the chat subsystem. It composes the
// presence registry, typing debouncer, delivery state machine and broker,
// and talks to the external message store and user directory.
type Service struct {
	registry *presence.Registry
	typing   *presence.TypingDebouncer
	broker   *push.Broker
	delivery *Delivery
	messages repository.MessageStore
	users    repository.UserDirectory
	pageSize int
}

func NewService(
	registry *presence.Registry,
	broker *push.Broker,
	messages repository.MessageStore,
	users repository.UserDirectory,
	typingWindow time.Duration,
	pageSize int,
) *Service {
	s := &Service{
		registry: registry,
		broker:   broker,
		delivery: NewDelivery(messages),
		messages: messages,
		users:    users,
		pageSize: pageSize,
	}
	s.typing = presence.NewTypingDebouncer(typingWindow, s.onTypingStop)
	return s
}

func (s *Service) onTypingStop(senderID, recipientID string) {
	// The recipient may have disconnected since the signal; SendToUser is
	// then a no-op, never an error.
	s.broker.SendToUser(recipientID, push.TypingStop(senderID))
}

// Connect registers a new live connection, announces presence when this is
// the user's first connection, reconciles the offline backlog and sends the
// online-user list to the caller. Backlog reconciliation is best effort:
// its failure never fails the connect.
func (s *Service) Connect(ctx context.Context, userID string, conn push.Conn, openPeerID string) error {
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if profile == nil {
		return apperrors.NotFound("User")
	}

	alreadyOnline := s.registry.Register(userID, conn)
	if !alreadyOnline {
		s.broker.SendToAllExcept(conn.ID(), push.PresenceChanged(userID, true))
		s.broker.SendToAllExcept(conn.ID(), push.UserJoined(profile))
	}

	log.Info().
		Str("userId", userID).
		Str("connId", conn.ID()).
		Bool("alreadyOnline", alreadyOnline).
		Msg("client connected")

	if openPeerID != "" {
		page, err := s.LoadMessages(ctx, userID, openPeerID, 0, s.pageSize)
		if err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("connect: failed to load open conversation")
		} else {
			s.broker.SendToConn(conn, push.History(page))
		}
	}

	senders, err := s.delivery.OnRecipientConnect(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("connect: backlog reconciliation incomplete")
	}
	for _, senderID := range senders {
		s.broker.SendToUser(senderID, push.MessagesReceived(userID))
	}

	s.broker.SendToConn(conn, push.OnlineUsers(s.onlineUsersFor(ctx, userID)))
	return nil
}

// Disconnect removes one of the user's connections. The offline transition
// is broadcast only when their last connection is gone, so a stale socket
// closing after a reconnect never announces a spurious offline. Safe to call
// for a user who is already gone.
func (s *Service) Disconnect(ctx context.Context, userID, connID string) {
	if !s.registry.Deregister(userID, connID) {
		return
	}
	s.typing.Cancel(userID)
	s.broker.SendToAllExcept(connID, push.PresenceChanged(userID, false))

	log.Info().Str("userId", userID).Str("connId", connID).Msg("client disconnected")
}

// SendMessage validates, persists and fans out a new message. Nothing is
// notified until the message has its durable id, so receivers can reconcile
// optimistic local echoes by id.
func (s *Service) SendMessage(ctx context.Context, senderID string, req SendMessageRequest) (*model.Message, error) {
	if req.RecipientID == "" {
		return nil, apperrors.MissingRequired("recipientId")
	}
	hasContent := strings.TrimSpace(req.Content) != ""
	if !hasContent && req.Attachment == nil {
		return nil, apperrors.ValidationError("message must have content or an attachment")
	}

	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if recipient == nil {
		return nil, apperrors.NotFound("Recipient")
	}

	recipientOnline := s.registry.IsOnline(req.RecipientID)
	recipientViewing := false
	if session, ok := s.registry.TryGetSession(req.RecipientID); ok {
		recipientViewing = session.CurrentPeerID == senderID
	}

	// Sending content makes a separate typing-stopped event redundant.
	s.typing.Cancel(senderID)

	params := model.CreateMessageParams{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Attachment:  req.Attachment,
	}
	if hasContent {
		content := req.Content
		params.Content = &content
	}

	msg, err := s.delivery.OnSend(ctx, params, recipientOnline, recipientViewing)
	if err != nil {
		return nil, err
	}

	s.broker.SendToUser(msg.RecipientID, push.NewMessage(msg))
	s.broker.SendToUser(msg.SenderID, push.NewMessage(msg))
	s.pushSidebarDelta(ctx, msg.RecipientID, msg.SenderID)
	s.pushSidebarDelta(ctx, msg.SenderID, msg.RecipientID)

	return msg, nil
}

// EditMessage updates a message's content and notifies both parties.
func (s *Service) EditMessage(ctx context.Context, editorID string, messageID int64, newContent string) (*model.Message, error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, apperrors.MissingRequired("content")
	}

	msg, err := s.delivery.OnEdit(ctx, messageID, editorID, newContent)
	if err != nil {
		return nil, err
	}

	s.broker.SendToUser(msg.RecipientID, push.MessageEdited(msg))
	s.broker.SendToUser(msg.SenderID, push.MessageEdited(msg))
	return msg, nil
}

// DeleteMessage removes a message and notifies both parties.
func (s *Service) DeleteMessage(ctx context.Context, requesterID string, messageID int64) error {
	msg, err := s.delivery.OnDelete(ctx, messageID, requesterID)
	if err != nil {
		return err
	}

	s.broker.SendToUser(msg.RecipientID, push.MessageDeleted(msg))
	s.broker.SendToUser(msg.SenderID, push.MessageDeleted(msg))
	return nil
}

// MarkMessageAsRead acknowledges a single message, notifying its sender and
// refreshing the viewer's sidebar entry for that peer.
func (s *Service) MarkMessageAsRead(ctx context.Context, viewerID string, messageID int64) error {
	msg, changed, err := s.delivery.OnMarkSingleRead(ctx, viewerID, messageID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.broker.SendToUser(msg.SenderID, push.ReadReceipt(msg.ID, viewerID))
	s.pushSidebarDelta(ctx, viewerID, msg.SenderID)
	return nil
}

// MarkAllMessagesAsRead marks the whole conversation from peerID as read.
func (s *Service) MarkAllMessagesAsRead(ctx context.Context, viewerID, peerID string) (int, error) {
	if peerID == "" {
		return 0, apperrors.MissingRequired("peerId")
	}

	count, err := s.delivery.OnOpenConversation(ctx, viewerID, peerID)
	if err != nil {
		return count, err
	}
	if count > 0 {
		s.broker.SendToUser(peerID, push.MessagesRead(viewerID))
		s.pushSidebarDelta(ctx, viewerID, peerID)
	}
	return count, nil
}

// NotifyTyping resolves the recipient by username and forwards the typing
// signal. A recipient who is offline makes this a no-op, not an error.
func (s *Service) NotifyTyping(ctx context.Context, senderID, recipientUsername string) error {
	if recipientUsername == "" {
		return apperrors.MissingRequired("recipientUsername")
	}

	recipient, err := s.users.FindByUsername(ctx, recipientUsername)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if recipient == nil {
		return apperrors.NotFound("Recipient")
	}

	if !s.registry.IsOnline(recipient.ID) {
		return nil
	}

	s.typing.Signal(senderID, recipient.ID)
	s.broker.SendToUser(recipient.ID, push.TypingStart(senderID))
	return nil
}

// LoadMessages opens the conversation with peerID and returns one history
// page. The open-conversation read side effects run after the fetch and are
// best effort; a reconciliation failure does not withhold the page.
func (s *Service) LoadMessages(ctx context.Context, viewerID, peerID string, pageIndex, pageSize int) (*MessagePage, error) {
	if peerID == "" {
		return nil, apperrors.MissingRequired("peerId")
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 || pageSize > config.MaxPageSize {
		pageSize = s.pageSize
	}

	s.registry.SetCurrentPeer(viewerID, peerID)

	items, total, err := s.messages.QueryByParticipants(ctx, viewerID, peerID, pageIndex, pageSize)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	count, err := s.delivery.OnOpenConversation(ctx, viewerID, peerID)
	if err != nil {
		log.Warn().Err(err).
			Str("viewerId", viewerID).
			Str("peerId", peerID).
			Msg("load messages: read reconciliation incomplete")
	}
	if count > 0 {
		s.broker.SendToUser(peerID, push.MessagesRead(viewerID))
		s.pushSidebarDelta(ctx, viewerID, peerID)
	}

	return &MessagePage{
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalCount: total,
		Items:      items,
	}, nil
}

// sidebarEntry recomputes one conversation-list row from source-of-truth
// message state; it is never cached.
func (s *Service) sidebarEntry(ctx context.Context, viewerID, peerID string) (model.SidebarEntry, error) {
	entry := model.SidebarEntry{
		PeerID:   peerID,
		IsOnline: s.registry.IsOnline(peerID),
	}

	count, err := s.messages.UnreadCountFor(ctx, viewerID, peerID)
	if err != nil {
		return entry, err
	}
	entry.UnreadCount = count

	last, err := s.messages.LastMessageBetween(ctx, viewerID, peerID)
	if err != nil {
		return entry, err
	}
	if last != nil {
		entry.LastMessage = last
		t := last.CreatedAt
		entry.LastMessageTime = &t
	}
	return entry, nil
}

func (s *Service) pushSidebarDelta(ctx context.Context, viewerID, peerID string) {
	entry, err := s.sidebarEntry(ctx, viewerID, peerID)
	if err != nil {
		log.Warn().Err(err).
			Str("viewerId", viewerID).
			Str("peerId", peerID).
			Msg("sidebar delta skipped")
		return
	}
	s.broker.SendToUser(viewerID, push.SidebarDelta(entry))
}

func (s *Service) onlineUsersFor(ctx context.Context, viewerID string) []model.OnlineUser {
	users := make([]model.OnlineUser, 0)
	for _, peerID := range s.registry.AllOnlineUserIDs() {
		if peerID == viewerID {
			continue
		}
		profile, err := s.users.FindByID(ctx, peerID)
		if err != nil || profile == nil {
			if err != nil {
				log.Warn().Err(err).Str("peerId", peerID).Msg("online list: profile lookup failed")
			}
			continue
		}
		entry, err := s.sidebarEntry(ctx, viewerID, peerID)
		if err != nil {
			log.Warn().Err(err).Str("peerId", peerID).Msg("online list: sidebar lookup failed")
		}
		users = append(users, model.OnlineUser{Profile: *profile, Sidebar: entry})
	}
	return users
}
