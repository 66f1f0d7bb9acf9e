package push

import (
	"encoding/json"

	"github.com/storelink/chat-server-go/internal/model"
)

// Event is one notification pushed to a live connection.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event kinds delivered to clients.
const (
	EventNewMessage       = "new-message"
	EventMessageEdited    = "message-edited"
	EventMessageDeleted   = "message-deleted"
	EventReadReceipt      = "read-receipt"
	EventMessagesRead     = "messages-read"
	EventMessagesReceived = "messages-received"
	EventTypingStart      = "typing-start"
	EventTypingStop       = "typing-stop"
	EventSidebarDelta     = "sidebar-delta"
	EventOnlineUsers      = "online-users"
	EventPresenceChanged  = "presence-changed"
	EventUserJoined       = "user-joined"
	EventHistory          = "history"
)

func newEvent(eventType string, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: eventType, Data: data}
}

// NewMessage carries the full persisted message so an optimistic local echo
// can be reconciled by id.
func NewMessage(msg *model.Message) Event {
	return newEvent(EventNewMessage, msg)
}

func MessageEdited(msg *model.Message) Event {
	return newEvent(EventMessageEdited, msg)
}

func MessageDeleted(msg *model.Message) Event {
	return newEvent(EventMessageDeleted, map[string]any{
		"id":          msg.ID,
		"senderId":    msg.SenderID,
		"recipientId": msg.RecipientID,
	})
}

// ReadReceipt acknowledges a single message, addressed to its sender.
func ReadReceipt(messageID int64, readerID string) Event {
	return newEvent(EventReadReceipt, map[string]any{
		"messageId": messageID,
		"readerId":  readerID,
	})
}

// MessagesRead is the bulk variant: every outstanding message the reader had
// from the addressee is now read.
func MessagesRead(readerID string) Event {
	return newEvent(EventMessagesRead, map[string]any{"readerId": readerID})
}

// MessagesReceived tells a sender that their outstanding messages reached
// the recipient, one event per sender regardless of message count.
func MessagesReceived(recipientID string) Event {
	return newEvent(EventMessagesReceived, map[string]any{"recipientId": recipientID})
}

func TypingStart(senderID string) Event {
	return newEvent(EventTypingStart, map[string]any{"senderId": senderID})
}

func TypingStop(senderID string) Event {
	return newEvent(EventTypingStop, map[string]any{"senderId": senderID})
}

func SidebarDelta(entry model.SidebarEntry) Event {
	return newEvent(EventSidebarDelta, entry)
}

func OnlineUsers(users []model.OnlineUser) Event {
	return newEvent(EventOnlineUsers, map[string]any{"users": users})
}

func PresenceChanged(userID string, online bool) Event {
	return newEvent(EventPresenceChanged, map[string]any{
		"userId": userID,
		"online": online,
	})
}

func UserJoined(profile *model.UserProfile) Event {
	return newEvent(EventUserJoined, profile)
}

func History(page any) Event {
	return newEvent(EventHistory, page)
}
