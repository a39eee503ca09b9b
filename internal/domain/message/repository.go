package message

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking conversation messages.
type Repository interface {
	// FindByBookingID retrieves the booking's messages in chronological order.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Message, error)

	// Save persists a new message.
	Save(ctx context.Context, message *Message) error

	// MarkConversationRead flags every message on the booking not sent by the
	// reader as read, returning the number of messages updated.
	MarkConversationRead(ctx context.Context, bookingID, readerID uuid.UUID) (int64, error)
}
