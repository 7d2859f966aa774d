package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zatekoja/carebooking/internal/api/handlers"
	"github.com/zatekoja/carebooking/internal/api/middleware"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
)

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	availabilityHandler *handlers.AvailabilityHandler
	appointmentHandler  *handlers.AppointmentHandler
	sessionHandler      *handlers.SessionHandler
	sseHandler          *handlers.SSEHandler

	healthChecks   map[string]HealthCheck
	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router. sseHandler may be nil when no event bus is configured.
func NewRouter(
	availabilityHandler *handlers.AvailabilityHandler,
	appointmentHandler *handlers.AppointmentHandler,
	sessionHandler *handlers.SessionHandler,
	sseHandler *handlers.SSEHandler,
	healthChecks map[string]HealthCheck,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		sessionHandler:      sessionHandler,
		sseHandler:          sseHandler,
		healthChecks:        healthChecks,
		metrics:             metrics,
		allowedOrigins:      allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.health)

	// Doctor availability
	r.mux.HandleFunc("GET /api/doctors/{id}/availability", r.availabilityHandler.GetDoctorAvailability)
	r.mux.HandleFunc("GET /api/specializations/{id}/doctors", r.availabilityHandler.ListSpecializationDoctors)

	// Appointment endpoints
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.mux.HandleFunc("PUT /api/appointments/{id}", r.appointmentHandler.RescheduleAppointment)
	r.mux.HandleFunc("DELETE /api/appointments/{id}", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("GET /api/subscribers/{id}/appointments", r.appointmentHandler.ListSubscriberAppointments)

	// Care sessions and medication
	r.mux.HandleFunc("POST /api/sessions", r.sessionHandler.CreateSession)
	r.mux.HandleFunc("GET /api/sessions/{id}/vitals-schedule", r.sessionHandler.GetVitalsSchedule)
	r.mux.HandleFunc("GET /api/sessions/{id}/medications", r.sessionHandler.ListSessionMedications)
	r.mux.HandleFunc("POST /api/medications/schedule", r.sessionHandler.ScheduleMedications)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/doctors/{id}", r.sseHandler.StreamDoctorUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)

	// Extract incoming trace context before any span is started
	return otelhttp.NewHandler(handler, "carebooking-api",
		otelhttp.WithFilter(func(req *http.Request) bool { return req.URL.Path != "/health" }),
	)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(r.healthChecks))
	for name, check := range r.healthChecks {
		if err := check(req.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": state, "checks": checks})
}
