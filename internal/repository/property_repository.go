package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/staynest/service-booking/internal/domain"
	propertyDomain "github.com/staynest/service-booking/internal/domain/property"
)

// PropertyModel is the GORM model for the properties table.
type PropertyModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title            string          `gorm:"not null;size:200"`
	NightlyRateCents int64           `gorm:"not null"`
	Status           string          `gorm:"not null;size:20;index"`
	BlockedDates     json.RawMessage `gorm:"type:jsonb"`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PropertyModel) TableName() string {
	return "properties"
}

// GormPropertyRepository is the GORM-based implementation of the property
// repository contract.
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository.
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID retrieves a property by its unique identifier.
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	var model PropertyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Property", id.String())
		}
		return nil, fmt.Errorf("failed to find property by ID: %w", err)
	}
	return toDomainProperty(&model)
}

// Save persists a new property.
func (r *GormPropertyRepository) Save(ctx context.Context, prop *propertyDomain.Property) error {
	model, err := toPropertyModel(prop)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

// Update persists changes to an existing property with optimistic locking.
func (r *GormPropertyRepository) Update(ctx context.Context, prop *propertyDomain.Property) error {
	model, err := toPropertyModel(prop)
	if err != nil {
		return err
	}

	expectedVersion := prop.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&PropertyModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":              model.Title,
			"nightly_rate_cents": model.NightlyRateCents,
			"status":             model.Status,
			"blocked_dates":      model.BlockedDates,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("property was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toPropertyModel(prop *propertyDomain.Property) (*PropertyModel, error) {
	blocked := prop.BlockedDates()
	encoded := make([]string, len(blocked))
	for i, d := range blocked {
		encoded[i] = d.Format(time.DateOnly)
	}
	blockedJSON, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blocked dates: %w", err)
	}

	return &PropertyModel{
		ID:               prop.ID(),
		OwnerID:          prop.OwnerID(),
		Title:            prop.Title(),
		NightlyRateCents: prop.NightlyRateCents(),
		Status:           string(prop.Status()),
		BlockedDates:     blockedJSON,
		Version:          prop.Version(),
		CreatedAt:        prop.CreatedAt(),
		UpdatedAt:        prop.UpdatedAt(),
	}, nil
}

func toDomainProperty(m *PropertyModel) (*propertyDomain.Property, error) {
	var encoded []string
	if len(m.BlockedDates) > 0 {
		if err := json.Unmarshal(m.BlockedDates, &encoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal blocked dates: %w", err)
		}
	}
	blocked := make([]time.Time, len(encoded))
	for i, e := range encoded {
		d, err := time.ParseInLocation(time.DateOnly, e, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse blocked date %q: %w", e, err)
		}
		blocked[i] = d
	}

	return propertyDomain.Reconstruct(
		m.ID,
		m.OwnerID,
		m.Title,
		m.NightlyRateCents,
		propertyDomain.Status(m.Status),
		blocked,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
