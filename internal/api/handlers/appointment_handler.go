package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	Book(ctx context.Context, req services.BookingRequest) (*entities.DoctorAppointment, error)
	Reschedule(ctx context.Context, id string, req services.RescheduleRequest) (*entities.DoctorAppointment, error)
	Cancel(ctx context.Context, id string) error
	ListForSubscriber(ctx context.Context, subscriberID string, filter repositories.AppointmentFilter) ([]*entities.DoctorAppointment, error)
}

// bookingPayload is the body of POST /api/appointments
type bookingPayload struct {
	DoctorID     string             `json:"doctor_id"`
	SubscriberID string             `json:"subscriber_id"`
	BookForID    string             `json:"book_for_id"`
	ClinicName   string             `json:"clinic_name"`
	Date         string             `json:"date"`
	Time         entities.TimeOfDay `json:"time"`
	Notes        string             `json:"notes"`
}

// reschedulePayload is the body of PUT /api/appointments/{id}
type reschedulePayload struct {
	ClinicName string             `json:"clinic_name"`
	Date       string             `json:"date"`
	Time       entities.TimeOfDay `json:"time"`
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var payload bookingPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointment, err := h.service.Book(r.Context(), services.BookingRequest{
		DoctorID:     payload.DoctorID,
		SubscriberID: payload.SubscriberID,
		BookForID:    payload.BookForID,
		ClinicName:   payload.ClinicName,
		Date:         date,
		Time:         payload.Time,
		Notes:        payload.Notes,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// RescheduleAppointment handles PUT /api/appointments/{id}
func (h *AppointmentHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var payload reschedulePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointment, err := h.service.Reschedule(r.Context(), id, services.RescheduleRequest{
		ClinicName: payload.ClinicName,
		Date:       date,
		Time:       payload.Time,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// CancelAppointment handles DELETE /api/appointments/{id}
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriberAppointments handles GET /api/subscribers/{id}/appointments
func (h *AppointmentHandler) ListSubscriberAppointments(w http.ResponseWriter, r *http.Request) {
	subscriberID := r.PathValue("id")

	query := r.URL.Query()
	filter := repositories.AppointmentFilter{
		Status: entities.AppointmentStatus(query.Get("status")),
		Limit:  50,
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", filter.Limit); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := query.Get("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.To = &to
	}

	appointments, err := h.service.ListForSubscriber(r.Context(), subscriberID, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}
