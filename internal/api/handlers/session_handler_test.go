package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/carebooking/internal/api/handlers"
	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, req services.CreateSessionRequest) (*services.VitalsSchedule, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VitalsSchedule), args.Error(1)
}

func (m *MockSessionService) GetVitalsSchedule(ctx context.Context, sessionID string) (*services.VitalsSchedule, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VitalsSchedule), args.Error(1)
}

type MockMedicationService struct {
	mock.Mock
}

func (m *MockMedicationService) Schedule(ctx context.Context, req services.MedicationRequest) ([]*entities.MedicationSchedule, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MedicationSchedule), args.Error(1)
}

func (m *MockMedicationService) ListForSession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MedicationSchedule), args.Error(1)
}

func TestSessionHandler_CreateSession(t *testing.T) {
	payload := map[string]string{
		"subscriber_id":       "sub-1",
		"service_provider_id": "nurse-7",
		"session_frequency":   "Every two hours",
		"start_date":          "2026-03-02",
		"end_date":            "2026-03-03",
		"start_time":          "08:00 AM",
		"end_time":            "02:00 PM",
	}

	t.Run("creates the session", func(t *testing.T) {
		sessions := new(MockSessionService)
		handler := handlers.NewSessionHandler(sessions, new(MockMedicationService))

		sessions.On("Create", mock.Anything, mock.MatchedBy(func(req services.CreateSessionRequest) bool {
			return req.Frequency == "Every two hours" &&
				req.Window.StartDate.Equal(march2) &&
				req.Window.EndTime == entities.MustParseTimeOfDay("14:00")
		})).Return(&services.VitalsSchedule{
			Session:     &entities.ServiceSession{ID: "sess-1", Frequency: entities.FrequencyEveryTwoHours},
			Checkpoints: []entities.VitalsCheckpoint{},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, payload))
		w := httptest.NewRecorder()
		handler.CreateSession(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"Every two hours"`)
	})

	t.Run("unknown frequency is unprocessable", func(t *testing.T) {
		sessions := new(MockSessionService)
		handler := handlers.NewSessionHandler(sessions, new(MockMedicationService))
		sessions.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConfigurationError(`unsupported frequency policy "Every fortnight"`))

		req := httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, payload))
		w := httptest.NewRecorder()
		handler.CreateSession(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing dates", func(t *testing.T) {
		handler := handlers.NewSessionHandler(new(MockSessionService), new(MockMedicationService))

		req := httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, map[string]string{"subscriber_id": "sub-1"}))
		w := httptest.NewRecorder()
		handler.CreateSession(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_GetVitalsSchedule(t *testing.T) {
	sessions := new(MockSessionService)
	handler := handlers.NewSessionHandler(sessions, new(MockMedicationService))
	sessions.On("GetVitalsSchedule", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("session with id missing not found"))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing/vitals-schedule", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.GetVitalsSchedule(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_ScheduleMedications(t *testing.T) {
	t.Run("computes doses", func(t *testing.T) {
		medications := new(MockMedicationService)
		handler := handlers.NewSessionHandler(new(MockSessionService), medications)

		medications.On("Schedule", mock.Anything, mock.MatchedBy(func(req services.MedicationRequest) bool {
			morning, ok := req.Meals.Get(entities.MealMorning)
			return ok && morning == entities.MustParseTimeOfDay("08:00") &&
				len(req.Medicines) == 1 &&
				req.Medicines[0].DosageCode == entities.DosageCode{1, 0, 1, 0} &&
				req.Medicines[0].Timing == entities.DosageBeforeFood &&
				req.StartDate.Equal(march2)
		})).Return([]*entities.MedicationSchedule{{MedicineName: "Metformin", TotalQuantity: 10}}, nil)

		body := `{
			"start_date": "2026-03-02",
			"days": 5,
			"meal_times": {"morning": "08:00", "evening": "20:00"},
			"medicines": [{"medicine_name": "Metformin", "dosage_code": "1-0-1-0", "dosage_timing": "Before Food"}]
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/medications/schedule", stringBody(body))
		w := httptest.NewRecorder()
		handler.ScheduleMedications(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total_quantity":10`)
		medications.AssertExpectations(t)
	})

	t.Run("unknown dosage timing is unprocessable", func(t *testing.T) {
		medications := new(MockMedicationService)
		handler := handlers.NewSessionHandler(new(MockSessionService), medications)

		body := `{"days": 5, "meal_times": {"morning": "08:00"},
			"medicines": [{"medicine_name": "Metformin", "dosage_code": "1-0-0-0", "dosage_timing": "With Food"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/medications/schedule", stringBody(body))
		w := httptest.NewRecorder()
		handler.ScheduleMedications(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		medications.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		handler := handlers.NewSessionHandler(new(MockSessionService), new(MockMedicationService))
		req := httptest.NewRequest(http.MethodPost, "/api/medications/schedule", stringBody("{"))
		w := httptest.NewRecorder()
		handler.ScheduleMedications(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_ListSessionMedications(t *testing.T) {
	t.Run("lists stored schedules", func(t *testing.T) {
		medications := new(MockMedicationService)
		handler := handlers.NewSessionHandler(new(MockSessionService), medications)

		medications.On("ListForSession", mock.Anything, "sess-1").Return([]*entities.MedicationSchedule{
			{ID: "med-1", SessionID: "sess-1", MedicineName: "Metformin", TotalQuantity: 10},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/sess-1/medications", nil)
		req.SetPathValue("id", "sess-1")
		w := httptest.NewRecorder()
		handler.ListSessionMedications(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"medicine_name":"Metformin"`)
		assert.Contains(t, w.Body.String(), `"count":1`)
		medications.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		medications := new(MockMedicationService)
		handler := handlers.NewSessionHandler(new(MockSessionService), medications)

		medications.On("ListForSession", mock.Anything, "ghost").
			Return(nil, apperrors.NewNotFoundError("session with id ghost not found"))

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/ghost/medications", nil)
		req.SetPathValue("id", "ghost")
		w := httptest.NewRecorder()
		handler.ListSessionMedications(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
