package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// CreateSessionRequest books a home-care session with a service provider
type CreateSessionRequest struct {
	SubscriberID      string
	BookForID         string
	ServiceProviderID string
	PrescriptionID    string
	VisitType         string
	Frequency         string
	Window            entities.SessionWindow
}

// VitalsSchedule is a session together with its planned checkpoints
type VitalsSchedule struct {
	Session     *entities.ServiceSession    `json:"session"`
	Checkpoints []entities.VitalsCheckpoint `json:"checkpoints"`
}

// SessionService creates care sessions and plans their vitals checkpoints
type SessionService struct {
	repo repositories.SessionRepository
	loc  *time.Location
}

// NewSessionService creates a new session service; checkpoints are planned in loc
func NewSessionService(repo repositories.SessionRepository, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionService{repo: repo, loc: loc}
}

// Create validates the request, plans every checkpoint of the session and
// stores both atomically
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*VitalsSchedule, error) {
	ctx, span := observability.StartSpan(ctx, "SessionService.Create")
	defer span.End()

	if strings.TrimSpace(req.SubscriberID) == "" || strings.TrimSpace(req.ServiceProviderID) == "" {
		return nil, apperrors.NewValidationError("subscriber_id and service_provider_id are required")
	}
	if req.Window.StartDate.IsZero() || req.Window.EndDate.IsZero() {
		return nil, apperrors.NewValidationError("start_date and end_date are required")
	}

	policy, err := entities.ParseFrequencyPolicy(req.Frequency)
	if err != nil {
		return nil, err
	}

	session := &entities.ServiceSession{
		ID:                uuid.New().String(),
		SubscriberID:      req.SubscriberID,
		BookForID:         req.BookForID,
		ServiceProviderID: req.ServiceProviderID,
		PrescriptionID:    req.PrescriptionID,
		VisitType:         req.VisitType,
		Frequency:         policy,
		Window:            req.Window,
		Status:            entities.SessionStatusListed,
	}

	checkpoints, err := s.PlanCheckpoints(session)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.String("session.frequency", policy.String()),
		attribute.Int("session.checkpoints", len(checkpoints)),
	)

	if err := s.repo.Create(ctx, session, checkpoints); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("session_id", session.ID).
		Str("frequency", policy.String()).
		Int("checkpoints", len(checkpoints)).
		Msg("service session created")

	return &VitalsSchedule{Session: session, Checkpoints: checkpoints}, nil
}

// PlanCheckpoints expands the session's frequency policy over its window
func (s *SessionService) PlanCheckpoints(session *entities.ServiceSession) ([]entities.VitalsCheckpoint, error) {
	times, err := scheduling.PlanSession(session.Frequency, session.Window, s.loc)
	if err != nil {
		return nil, err
	}

	checkpoints := make([]entities.VitalsCheckpoint, 0, len(times))
	for _, at := range times {
		checkpoints = append(checkpoints, entities.VitalsCheckpoint{
			ID:          uuid.New().String(),
			SessionID:   session.ID,
			ScheduledAt: at,
		})
	}
	return checkpoints, nil
}

// Backfill plans and stores checkpoints for a session stored without any.
// It returns the number of checkpoints written.
func (s *SessionService) Backfill(ctx context.Context, session *entities.ServiceSession) (int, error) {
	checkpoints, err := s.PlanCheckpoints(session)
	if err != nil {
		return 0, err
	}
	if err := s.repo.AddCheckpoints(ctx, session.ID, checkpoints); err != nil {
		return 0, err
	}
	return len(checkpoints), nil
}

// GetVitalsSchedule returns a session and its checkpoints in time order
func (s *SessionService) GetVitalsSchedule(ctx context.Context, sessionID string) (*VitalsSchedule, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.repo.ListCheckpoints(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &VitalsSchedule{Session: session, Checkpoints: checkpoints}, nil
}
