package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// SessionService defines the interface for care session operations
type SessionService interface {
	Create(ctx context.Context, req services.CreateSessionRequest) (*services.VitalsSchedule, error)
	GetVitalsSchedule(ctx context.Context, sessionID string) (*services.VitalsSchedule, error)
}

// MedicationService defines the interface for dose scheduling
type MedicationService interface {
	Schedule(ctx context.Context, req services.MedicationRequest) ([]*entities.MedicationSchedule, error)
	ListForSession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error)
}

type sessionPayload struct {
	SubscriberID      string             `json:"subscriber_id"`
	BookForID         string             `json:"book_for_id"`
	ServiceProviderID string             `json:"service_provider_id"`
	PrescriptionID    string             `json:"prescription_id"`
	VisitType         string             `json:"visit_type"`
	Frequency         string             `json:"session_frequency"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	StartTime         entities.TimeOfDay `json:"start_time"`
	EndTime           entities.TimeOfDay `json:"end_time"`
}

type medicationPayload struct {
	services.MedicationRequest
	StartDate string `json:"start_date"`
}

// SessionHandler handles home-care session and medication requests
type SessionHandler struct {
	sessions    SessionService
	medications MedicationService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionService, medications MedicationService) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		medications: medications,
	}
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var payload sessionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	start, err := parseDate(payload.StartDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "start_date: "+err.Error())
		return
	}
	end, err := parseDate(payload.EndDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end_date: "+err.Error())
		return
	}

	schedule, err := h.sessions.Create(r.Context(), services.CreateSessionRequest{
		SubscriberID:      payload.SubscriberID,
		BookForID:         payload.BookForID,
		ServiceProviderID: payload.ServiceProviderID,
		PrescriptionID:    payload.PrescriptionID,
		VisitType:         payload.VisitType,
		Frequency:         payload.Frequency,
		Window: entities.SessionWindow{
			StartDate: start,
			EndDate:   end,
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
		},
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, schedule)
}

// GetVitalsSchedule handles GET /api/sessions/{id}/vitals-schedule
func (h *SessionHandler) GetVitalsSchedule(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	schedule, err := h.sessions.GetVitalsSchedule(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, schedule)
}

// ScheduleMedications handles POST /api/medications/schedule
func (h *SessionHandler) ScheduleMedications(w http.ResponseWriter, r *http.Request) {
	var payload medicationPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondWithAppError(w, r, asPayloadError(err))
		return
	}

	req := payload.MedicationRequest
	if payload.StartDate != "" {
		start, err := parseDate(payload.StartDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "start_date: "+err.Error())
			return
		}
		req.StartDate = start
	} else {
		req.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	schedules, err := h.medications.Schedule(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
	})
}

// ListSessionMedications handles GET /api/sessions/{id}/medications
func (h *SessionHandler) ListSessionMedications(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	schedules, err := h.medications.ListForSession(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"schedules":  schedules,
		"count":      len(schedules),
	})
}
