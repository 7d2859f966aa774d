package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// SessionRepository defines the interface for service sessions and their vitals checkpoints
type SessionRepository interface {
	// Create stores the session together with its checkpoints in one transaction
	Create(ctx context.Context, session *entities.ServiceSession, checkpoints []entities.VitalsCheckpoint) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id string) (*entities.ServiceSession, error)

	// ListCheckpoints returns a session's checkpoints ordered by time
	ListCheckpoints(ctx context.Context, sessionID string) ([]entities.VitalsCheckpoint, error)

	// ListWithoutCheckpoints returns up to limit sessions that have no checkpoints yet,
	// ordered by creation time and ID, starting strictly after the cursor when one is given
	ListWithoutCheckpoints(ctx context.Context, after *SessionCursor, limit int) ([]*entities.ServiceSession, error)

	// AddCheckpoints appends checkpoints to an existing session
	AddCheckpoints(ctx context.Context, sessionID string, checkpoints []entities.VitalsCheckpoint) error
}

// SessionCursor marks the last session of a page in (created_at, id) order
type SessionCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter returns the cursor positioned on session
func CursorAfter(session *entities.ServiceSession) *SessionCursor {
	return &SessionCursor{CreatedAt: session.CreatedAt, ID: session.ID}
}

// MedicationRepository defines the interface for medication schedules
type MedicationRepository interface {
	// SaveSchedules persists all schedules of a session and their doses atomically
	SaveSchedules(ctx context.Context, sessionID string, schedules []*entities.MedicationSchedule) error

	// ListBySession returns the schedules recorded for a session
	ListBySession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error)
}
