package property

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for property listings. The
// booking core is a read-side consumer; writes exist for listing lifecycle
// management and test seeding.
type Repository interface {
	// FindByID retrieves a property by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)

	// Save persists a new property.
	Save(ctx context.Context, property *Property) error

	// Update persists changes to an existing property with optimistic locking.
	Update(ctx context.Context, property *Property) error
}
