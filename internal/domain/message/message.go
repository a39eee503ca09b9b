package message

import (
	"time"

	"github.com/google/uuid"
	"github.com/staynest/service-booking/internal/domain"
)

// Message is one entry in a booking-scoped conversation between the guest and
// the owner. Threads are per booking, never per user pair.
type Message struct {
	id        uuid.UUID
	bookingID uuid.UUID
	senderID  uuid.UUID
	content   string
	read      bool
	createdAt time.Time
}

// NewMessage creates a new unread message on the given booking's thread.
func NewMessage(bookingID, senderID uuid.UUID, content string) (*Message, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if senderID == uuid.Nil {
		return nil, domain.NewValidationError("sender ID is required")
	}
	if content == "" {
		return nil, domain.NewValidationError("message content is required")
	}

	return &Message{
		id:        uuid.New(),
		bookingID: bookingID,
		senderID:  senderID,
		content:   content,
		read:      false,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Message from persistence data (no validation).
func Reconstruct(id, bookingID, senderID uuid.UUID, content string, read bool, createdAt time.Time) *Message {
	return &Message{
		id:        id,
		bookingID: bookingID,
		senderID:  senderID,
		content:   content,
		read:      read,
		createdAt: createdAt,
	}
}

// --- Getters ---

func (m *Message) ID() uuid.UUID        { return m.id }
func (m *Message) BookingID() uuid.UUID { return m.bookingID }
func (m *Message) SenderID() uuid.UUID  { return m.senderID }
func (m *Message) Content() string      { return m.content }
func (m *Message) Read() bool           { return m.read }
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// MarkRead flags the message as read by the counterpart.
func (m *Message) MarkRead() {
	m.read = true
}
