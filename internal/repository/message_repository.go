package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	messageDomain "github.com/staynest/service-booking/internal/domain/message"
)

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null"`
	Content   string    `gorm:"not null;size:2000"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (MessageModel) TableName() string {
	return "messages"
}

// GormMessageRepository is the GORM-based implementation of the message
// repository contract.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// FindByBookingID retrieves the booking's messages in chronological order.
func (r *GormMessageRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*messageDomain.Message, error) {
	var models []MessageModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}

	messages := make([]*messageDomain.Message, len(models))
	for i, m := range models {
		messages[i] = messageDomain.Reconstruct(m.ID, m.BookingID, m.SenderID, m.Content, m.IsRead, m.CreatedAt)
	}
	return messages, nil
}

// Save persists a new message.
func (r *GormMessageRepository) Save(ctx context.Context, msg *messageDomain.Message) error {
	model := &MessageModel{
		ID:        msg.ID(),
		BookingID: msg.BookingID(),
		SenderID:  msg.SenderID(),
		Content:   msg.Content(),
		IsRead:    msg.Read(),
		CreatedAt: msg.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// MarkConversationRead flags every message on the booking not sent by the
// reader as read.
func (r *GormMessageRepository) MarkConversationRead(ctx context.Context, bookingID, readerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("booking_id = ? AND sender_id <> ? AND is_read = false", bookingID, readerID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
