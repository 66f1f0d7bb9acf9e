package chat

import (
	"context"

	apperrors "github.com/storelink/chat-server-go/internal/errors"
	"github.com/storelink/chat-server-go/internal/model"
	"github.com/storelink/chat-server-go/internal/repository"
)

// Delivery governs the Sent -> Received -> Read lifecycle of a message.
// Flags only ever move forward; there is no transition back from Received
// or Read, and Read always implies Received.
type Delivery struct {
	messages repository.MessageStore
}

func NewDelivery(messages repository.MessageStore) *Delivery {
	return &Delivery{messages: messages}
}

// OnSend persists a new message. Received is set when the recipient is
// online at persistence time; Read is additionally set when the recipient
// already has the sender's conversation open.
func (d *Delivery) OnSend(ctx context.Context, params model.CreateMessageParams, recipientOnline, recipientViewing bool) (*model.Message, error) {
	params.Received = recipientOnline
	params.Read = recipientOnline && recipientViewing

	msg, err := d.messages.Create(ctx, params)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return msg, nil
}

// OnRecipientConnect retroactively marks every outstanding message to the
// recipient as received and returns the distinct senders to notify, in the
// order their oldest outstanding message arrived. One receipt per sender,
// never per message. On a mid-scan store failure the senders flipped so far
// are still returned alongside the error so the caller can notify them.
func (d *Delivery) OnRecipientConnect(ctx context.Context, recipientID string) ([]string, error) {
	msgs, err := d.messages.QueryUnreceivedFor(ctx, recipientID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	var senders []string
	seen := make(map[string]bool)
	for i := range msgs {
		msg := &msgs[i]
		msg.Received = true
		if err := d.messages.Update(ctx, msg); err != nil {
			return senders, apperrors.StoreUnavailable(err)
		}
		if !seen[msg.SenderID] {
			seen[msg.SenderID] = true
			senders = append(senders, msg.SenderID)
		}
	}
	return senders, nil
}

// OnOpenConversation marks every unread message from peerID to viewerID as
// read (and received, if a receipt was never recorded) and returns how many
// were newly read.
func (d *Delivery) OnOpenConversation(ctx context.Context, viewerID, peerID string) (int, error) {
	msgs, err := d.messages.QueryUnreadFor(ctx, viewerID, peerID)
	if err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}

	count := 0
	for i := range msgs {
		msg := &msgs[i]
		msg.Read = true
		msg.Received = true
		if err := d.messages.Update(ctx, msg); err != nil {
			return count, apperrors.StoreUnavailable(err)
		}
		count++
	}
	return count, nil
}

// OnMarkSingleRead marks one message as read. It reports false without
// error when the message is not addressed to the viewer or is already read.
func (d *Delivery) OnMarkSingleRead(ctx context.Context, viewerID string, messageID int64) (*model.Message, bool, error) {
	msg, err := d.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, false, apperrors.StoreUnavailable(err)
	}
	if msg == nil {
		return nil, false, apperrors.NotFound("Message")
	}
	if msg.RecipientID != viewerID || msg.Read {
		return msg, false, nil
	}

	msg.Read = true
	msg.Received = true
	if err := d.messages.Update(ctx, msg); err != nil {
		return nil, false, apperrors.StoreUnavailable(err)
	}
	return msg, true, nil
}

// OnEdit replaces the message content. Only the original sender may edit.
func (d *Delivery) OnEdit(ctx context.Context, messageID int64, editorID, newContent string) (*model.Message, error) {
	msg, err := d.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if msg == nil {
		return nil, apperrors.NotFound("Message")
	}
	if msg.SenderID != editorID {
		return nil, apperrors.Unauthorized("only the sender can edit a message")
	}

	msg.Content = &newContent
	msg.Edited = true
	if err := d.messages.Update(ctx, msg); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return msg, nil
}

// OnDelete removes the message from the store. Only the sender may delete.
// The removed message is returned so the caller can notify both parties.
func (d *Delivery) OnDelete(ctx context.Context, messageID int64, requesterID string) (*model.Message, error) {
	msg, err := d.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if msg == nil {
		return nil, apperrors.NotFound("Message")
	}
	if msg.SenderID != requesterID {
		return nil, apperrors.Unauthorized("only the sender can delete a message")
	}

	if err := d.messages.Delete(ctx, msg.ID); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return msg, nil
}
