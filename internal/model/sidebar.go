package model

import "time"

// SidebarEntry is the conversation-list row for one (viewer, peer) pair.
// It is derived on demand from message rows and presence, never stored.
type SidebarEntry struct {
	PeerID          string     `json:"peerId"`
	IsOnline        bool       `json:"isOnline"`
	UnreadCount     int        `json:"unreadCount"`
	LastMessage     *Message   `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
}

// OnlineUser is one row of the online-user list sent to a connecting client:
// the peer's profile plus that client's sidebar view of the conversation.
type OnlineUser struct {
	Profile UserProfile  `json:"profile"`
	Sidebar SidebarEntry `json:"sidebar"`
}
