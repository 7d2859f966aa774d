package repositories

import (
	"context"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// DoctorRepository defines the interface for doctor lookups
type DoctorRepository interface {
	// GetByID retrieves an active doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// GetByIDs retrieves several doctors; unknown IDs are omitted
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error)

	// ListBySpecialization returns the active doctors of a specialization
	ListBySpecialization(ctx context.Context, specializationID string) ([]*entities.Doctor, error)
}

// AvailabilityRepository defines the interface for weekly availability windows
type AvailabilityRepository interface {
	// ListActiveByDoctor returns the doctor's active windows in a stable order
	ListActiveByDoctor(ctx context.Context, doctorID string) ([]entities.AvailabilityWindow, error)

	// ListActiveByDoctors returns active windows for several doctors
	ListActiveByDoctors(ctx context.Context, doctorIDs []string) ([]entities.AvailabilityWindow, error)
}
