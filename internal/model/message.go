package model

import "time"

// Message is a direct message between two users. The delivery flags only
// ever move forward: once Received or Read is true it never reverts, and
// Read implies Received.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	SenderID       string    `db:"sender_id" json:"senderId"`
	RecipientID    string    `db:"recipient_id" json:"recipientId"`
	Content        *string   `db:"content" json:"content,omitempty"`
	AttachmentURL  *string   `db:"attachment_url" json:"attachmentUrl,omitempty"`
	AttachmentName *string   `db:"attachment_name" json:"attachmentName,omitempty"`
	AttachmentMime *string   `db:"attachment_mime" json:"attachmentMime,omitempty"`
	Edited         bool      `db:"edited" json:"edited"`
	Received       bool      `db:"received" json:"received"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// HasAttachment reports whether the message carries a file attachment.
func (m *Message) HasAttachment() bool {
	return m.AttachmentURL != nil && *m.AttachmentURL != ""
}

// Attachment describes an uploaded file referenced by a message.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Mime string `json:"mime"`
}

type CreateMessageParams struct {
	SenderID    string
	RecipientID string
	Content     *string
	Attachment  *Attachment
	Received    bool
	Read        bool
}
