package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/storelink/chat-server-go/internal/model"
)

// MessageStore is the durable home of direct messages. Only the fields the
// delivery lifecycle depends on are modelled here; everything else about a
// message lives with the owning platform.
type MessageStore interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	Update(ctx context.Context, msg *model.Message) error
	Delete(ctx context.Context, id int64) error
	QueryByParticipants(ctx context.Context, userA, userB string, pageIndex, pageSize int) ([]model.Message, int, error)
	QueryUnreadFor(ctx context.Context, userID, peerID string) ([]model.Message, error)
	QueryUnreceivedFor(ctx context.Context, userID string) ([]model.Message, error)
	LastMessageBetween(ctx context.Context, userA, userB string) (*model.Message, error)
	UnreadCountFor(ctx context.Context, viewerID, peerID string) (int, error)
}

type messageStore struct {
	db *sqlx.DB
}

func NewMessageStore(db *sqlx.DB) MessageStore {
	return &messageStore{db: db}
}

func (r *messageStore) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var url, name, mime *string
	if params.Attachment != nil {
		url, name, mime = &params.Attachment.URL, &params.Attachment.Name, &params.Attachment.Mime
	}

	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages
			(sender_id, recipient_id, content, attachment_url, attachment_name,
			 attachment_mime, received, "read")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.SenderID, params.RecipientID, params.Content, url, name, mime,
		params.Received, params.Read)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1`, id)
	return HandleNotFound(&msg, err)
}

func (r *messageStore) Update(ctx context.Context, msg *model.Message) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET
			content = $2,
			edited = $3,
			received = $4,
			"read" = $5
		WHERE id = $1
	`, msg.ID, msg.Content, msg.Edited, msg.Received, msg.Read)
	return err
}

func (r *messageStore) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

// QueryByParticipants pages through a conversation newest-first, but each
// page is returned in chronological order for rendering.
func (r *messageStore) QueryByParticipants(ctx context.Context, userA, userB string, pageIndex, pageSize int) ([]model.Message, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
	`, userA, userB)
	if err != nil {
		return nil, 0, err
	}

	var msgs []model.Message
	err = r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT * FROM messages
			WHERE (sender_id = $1 AND recipient_id = $2)
			   OR (sender_id = $2 AND recipient_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4
		) page
		ORDER BY created_at ASC, id ASC
	`, userA, userB, pageSize, pageIndex*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *messageStore) QueryUnreadFor(ctx context.Context, userID, peerID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE recipient_id = $1 AND sender_id = $2 AND "read" = false
		ORDER BY created_at ASC, id ASC
	`, userID, peerID)
	return msgs, err
}

func (r *messageStore) QueryUnreceivedFor(ctx context.Context, userID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE recipient_id = $1 AND received = false
		ORDER BY created_at ASC, id ASC
	`, userID)
	return msgs, err
}

func (r *messageStore) LastMessageBetween(ctx context.Context, userA, userB string) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT * FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userA, userB)
	return HandleNotFound(&msg, err)
}

func (r *messageStore) UnreadCountFor(ctx context.Context, viewerID, peerID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages
		WHERE recipient_id = $1 AND sender_id = $2 AND "read" = false
	`, viewerID, peerID)
	return count, err
}
