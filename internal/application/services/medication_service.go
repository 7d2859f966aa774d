package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// MedicineOrder is one prescribed medicine
type MedicineOrder struct {
	Name       string                `json:"medicine_name" yaml:"medicine_name"`
	DosageCode entities.DosageCode   `json:"dosage_code" yaml:"dosage_code"`
	Timing     entities.DosageTiming `json:"dosage_timing" yaml:"dosage_timing"`
}

// MedicationRequest asks for the dose timetable of a prescription
type MedicationRequest struct {
	// SessionID, when set, persists the resulting schedules against the session.
	SessionID string                `json:"session_id,omitempty" yaml:"session_id"`
	StartDate time.Time             `json:"-" yaml:"-"`
	Days      int                   `json:"days" yaml:"days"`
	Meals     entities.MealSchedule `json:"meal_times" yaml:"meal_times"`
	Medicines []MedicineOrder       `json:"medicines" yaml:"medicines"`
}

// MedicationService turns prescriptions into per-meal intake times
type MedicationService struct {
	repo     repositories.MedicationRepository
	sessions repositories.SessionRepository
	offset   time.Duration
}

// NewMedicationService creates a new medication service. repo and sessions may
// be nil when schedules are only computed, never stored.
func NewMedicationService(repo repositories.MedicationRepository, sessions repositories.SessionRepository, offset time.Duration) *MedicationService {
	return &MedicationService{repo: repo, sessions: sessions, offset: offset}
}

// Schedule computes the doses of every medicine and the quantity needed for
// the course. Any invalid medicine fails the whole request.
func (s *MedicationService) Schedule(ctx context.Context, req MedicationRequest) ([]*entities.MedicationSchedule, error) {
	ctx, span := observability.StartSpan(ctx, "MedicationService.Schedule")
	defer span.End()

	if len(req.Medicines) == 0 {
		return nil, apperrors.NewValidationError("at least one medicine is required")
	}
	if req.Days < 0 {
		return nil, apperrors.NewValidationError("days must not be negative")
	}

	schedules := make([]*entities.MedicationSchedule, 0, len(req.Medicines))
	for _, order := range req.Medicines {
		if strings.TrimSpace(order.Name) == "" {
			return nil, apperrors.NewValidationError("medicine_name is required")
		}

		doses, err := scheduling.CalculateDoseTimings(scheduling.DoseRequest{
			MedicineName: order.Name,
			Timing:       order.Timing,
			Code:         order.DosageCode,
			Meals:        req.Meals,
			Offset:       s.offset,
		})
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}

		schedules = append(schedules, &entities.MedicationSchedule{
			ID:            uuid.New().String(),
			SessionID:     req.SessionID,
			MedicineName:  order.Name,
			DosageCode:    order.DosageCode,
			DosageTiming:  order.Timing,
			Days:          req.Days,
			TotalQuantity: scheduling.TotalQuantity(order.DosageCode, req.Days),
			Doses:         doses,
			StartDate:     req.StartDate,
		})
	}

	if req.SessionID == "" {
		return schedules, nil
	}
	if err := s.persist(ctx, req.SessionID, schedules); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return schedules, nil
}

// ListForSession returns the schedules stored for a session. An unknown
// session is NOT_FOUND; a session without medication yields an empty list.
func (s *MedicationService) ListForSession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error) {
	ctx, span := observability.StartSpan(ctx, "MedicationService.ListForSession")
	defer span.End()

	if s.repo == nil || s.sessions == nil {
		return nil, apperrors.NewInternalError("medication repository not configured", nil)
	}
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	schedules, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to list medication schedules for session %s: %w", sessionID, err)
	}
	return schedules, nil
}

func (s *MedicationService) persist(ctx context.Context, sessionID string, schedules []*entities.MedicationSchedule) error {
	if s.repo == nil || s.sessions == nil {
		return apperrors.NewInternalError("medication repository not configured", nil)
	}
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.SaveSchedules(ctx, sessionID, schedules); err != nil {
		return fmt.Errorf("failed to save medication schedules for session %s: %w", sessionID, err)
	}
	return nil
}
