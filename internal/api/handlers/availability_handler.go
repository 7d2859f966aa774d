package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// AvailabilityService defines the interface for availability projection
type AvailabilityService interface {
	GetDoctorAvailability(ctx context.Context, doctorID string, days int) (*entities.AvailabilityProjection, error)
}

// DoctorDirectory defines the interface for listing doctors of a specialization
type DoctorDirectory interface {
	ListBySpecialization(ctx context.Context, specializationID string) ([]services.DoctorListing, error)
}

// clinicSlots is one clinic of a day in the availability response
type clinicSlots struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Mobile    string   `json:"mobile,omitempty"`
	Timing    []string `json:"timing"`
	AvblSlots []string `json:"avblslots"`
}

// AvailabilityHandler serves doctor availability and directory listings
type AvailabilityHandler struct {
	availability AvailabilityService
	directory    DoctorDirectory
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availability AvailabilityService, directory DoctorDirectory) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		directory:    directory,
	}
}

// GetDoctorAvailability handles GET /api/doctors/{id}/availability?days=N
//
// The response is keyed by "dd-mm-yyyy"; every day of the horizon is present,
// days without open clinics carry an empty clinic list.
func (h *AvailabilityHandler) GetDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	days, err := queryInt(r, "days", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	projection, err := h.availability.GetDoctorAvailability(r.Context(), doctorID, days)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, availabilityResponse(projection))
}

// ListSpecializationDoctors handles GET /api/specializations/{id}/doctors
func (h *AvailabilityHandler) ListSpecializationDoctors(w http.ResponseWriter, r *http.Request) {
	specializationID := r.PathValue("id")
	if specializationID == "" {
		respondWithError(w, http.StatusBadRequest, "specialization ID is required")
		return
	}

	listings, err := h.directory.ListBySpecialization(r.Context(), specializationID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": listings,
		"count":   len(listings),
	})
}

func availabilityResponse(p *entities.AvailabilityProjection) map[string]map[string][]clinicSlots {
	out := make(map[string]map[string][]clinicSlots, len(p.Days))
	for _, day := range p.Days {
		clinics := make([]clinicSlots, 0, len(day.Clinics))
		for _, c := range day.Clinics {
			slots := make([]string, len(c.AvailableSlots))
			for i, s := range c.AvailableSlots {
				slots[i] = s.Clock12()
			}
			clinics = append(clinics, clinicSlots{
				Name:      c.Name,
				Address:   c.Address,
				Mobile:    c.Mobile,
				Timing:    c.Timing,
				AvblSlots: slots,
			})
		}
		out[day.Date.Format(entities.DisplayDateLayout)] = map[string][]clinicSlots{"clinic": clinics}
	}
	return out
}
