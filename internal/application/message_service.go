package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	messageDomain "github.com/staynest/service-booking/internal/domain/message"
)

// SendMessageRequest holds the data needed to post a conversation message.
type SendMessageRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Content   string    `json:"content" binding:"required"`
}

// MessageDTO is the response representation of a conversation message.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageService is the conversation gate plus the message use cases. It
// derives messaging permission from effective booking state: new messages are
// allowed once a booking is approved, and the thread stays open after
// completion so the conversation history continues.
type MessageService struct {
	messages messageDomain.Repository
	bookings *BookingService
	logger   *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(messages messageDomain.Repository, bookings *BookingService, logger *zap.Logger) *MessageService {
	return &MessageService{messages: messages, bookings: bookings, logger: logger}
}

// CanMessage reports whether the actor may post a new message on the booking:
// the actor must be the guest or the owner, and the effective status must be
// approved or completed. Pending and declined bookings block new messages.
func (s *MessageService) CanMessage(ctx context.Context, bookingID, actorID uuid.UUID) (bool, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	return bk.IsParty(actorID) && messagingOpen(bk.Status()), nil
}

// ConversationKey returns the (guest, owner) pair scoping the booking's
// thread. Threads are booking-scoped: two bookings between the same pair do
// not share a conversation.
func (s *MessageService) ConversationKey(ctx context.Context, bookingID uuid.UUID) (guestID, ownerID uuid.UUID, err error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return bk.GuestID(), bk.OwnerID(), nil
}

// SendMessage posts a message on the booking's thread after consulting the
// conversation gate.
func (s *MessageService) SendMessage(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(senderID) {
		return nil, domain.NewNotAuthorizedError(bk.ID(), "user is not a party to this booking")
	}
	if !messagingOpen(bk.Status()) {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"messaging is not available for booking %s in status %q", bk.ID(), bk.Status(),
		))
	}

	msg, err := messageDomain.NewMessage(req.BookingID, senderID, req.Content)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Save(ctx, msg); err != nil {
		s.logger.Error("failed to save message",
			zap.String("booking_id", req.BookingID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	result := toMessageDTO(msg)
	return &result, nil
}

// ListMessages returns the booking's conversation in chronological order.
// Any party may read the history regardless of booking status.
func (s *MessageService) ListMessages(ctx context.Context, bookingID, actorID uuid.UUID) ([]MessageDTO, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(actorID) {
		return nil, domain.NewNotAuthorizedError(bk.ID(), "user is not a party to this booking")
	}

	msgs, err := s.messages.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = toMessageDTO(m)
	}
	return dtos, nil
}

// MarkConversationRead flags every counterpart message on the booking as read.
func (s *MessageService) MarkConversationRead(ctx context.Context, bookingID, readerID uuid.UUID) (int64, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	if !bk.IsParty(readerID) {
		return 0, domain.NewNotAuthorizedError(bk.ID(), "user is not a party to this booking")
	}
	return s.messages.MarkConversationRead(ctx, bookingID, readerID)
}

// messagingOpen reports whether new messages are accepted in this status.
func messagingOpen(status bookingDomain.Status) bool {
	return status == bookingDomain.StatusApproved || status == bookingDomain.StatusCompleted
}

func toMessageDTO(m *messageDomain.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID(),
		BookingID: m.BookingID(),
		SenderID:  m.SenderID(),
		Content:   m.Content(),
		Read:      m.Read(),
		CreatedAt: m.CreatedAt(),
	}
}
