package services

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
)

// ClinicSchedule is one weekly window of a doctor with the bookings that fall in it
type ClinicSchedule struct {
	Window entities.AvailabilityWindow `json:"window"`
	Booked []entities.BookedInstant    `json:"booked"`
}

// DoctorListing is a directory entry for a specialization
type DoctorListing struct {
	Doctor  *entities.Doctor `json:"doctor"`
	Clinics []ClinicSchedule `json:"clinics"`
}

// DoctorDirectoryService lists doctors with their clinic schedules
type DoctorDirectoryService struct {
	doctors      repositories.DoctorRepository
	windows      repositories.AvailabilityRepository
	appointments repositories.AppointmentRepository
	availability *AvailabilityService
}

// NewDoctorDirectoryService creates a new doctor directory service
func NewDoctorDirectoryService(
	doctors repositories.DoctorRepository,
	windows repositories.AvailabilityRepository,
	appointments repositories.AppointmentRepository,
	availability *AvailabilityService,
) *DoctorDirectoryService {
	return &DoctorDirectoryService{
		doctors:      doctors,
		windows:      windows,
		appointments: appointments,
		availability: availability,
	}
}

// directoryLoaders batch the per-doctor lookups of one listing
type directoryLoaders struct {
	windows *dataloader.Loader[string, []entities.AvailabilityWindow]
	booked  *dataloader.Loader[string, []entities.BookedInstant]
}

func (s *DoctorDirectoryService) newLoaders(from, to time.Time) *directoryLoaders {
	return &directoryLoaders{
		windows: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[[]entities.AvailabilityWindow] {
			results := make([]*dataloader.Result[[]entities.AvailabilityWindow], len(keys))
			windows, err := s.windows.ListActiveByDoctors(ctx, keys)

			byDoctor := make(map[string][]entities.AvailabilityWindow)
			if err == nil {
				for _, w := range windows {
					byDoctor[w.DoctorID] = append(byDoctor[w.DoctorID], w)
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[[]entities.AvailabilityWindow]{Error: err}
					continue
				}
				results[i] = &dataloader.Result[[]entities.AvailabilityWindow]{Data: byDoctor[key]}
			}
			return results
		}),
		booked: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[[]entities.BookedInstant] {
			results := make([]*dataloader.Result[[]entities.BookedInstant], len(keys))
			booked, err := s.appointments.ListBookedInstantsByDoctors(ctx, keys, from, to)

			byDoctor := make(map[string][]entities.BookedInstant)
			if err == nil {
				for _, b := range booked {
					byDoctor[b.DoctorID] = append(byDoctor[b.DoctorID], b)
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[[]entities.BookedInstant]{Error: err}
					continue
				}
				results[i] = &dataloader.Result[[]entities.BookedInstant]{Data: byDoctor[key]}
			}
			return results
		}),
	}
}

// ListBySpecialization returns the active doctors of a specialization with
// their windows and the upcoming bookings inside each window
func (s *DoctorDirectoryService) ListBySpecialization(ctx context.Context, specializationID string) ([]DoctorListing, error) {
	ctx, span := observability.StartSpan(ctx, "DoctorDirectoryService.ListBySpecialization")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("specialization.id", specializationID))

	doctors, err := s.doctors.ListBySpecialization(ctx, specializationID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	today := s.availability.Today()
	loaders := s.newLoaders(today, today.AddDate(0, 0, s.availability.projector.Horizon()))

	windowThunks := make([]dataloader.Thunk[[]entities.AvailabilityWindow], len(doctors))
	bookedThunks := make([]dataloader.Thunk[[]entities.BookedInstant], len(doctors))
	for i, d := range doctors {
		windowThunks[i] = loaders.windows.Load(ctx, d.ID)
		bookedThunks[i] = loaders.booked.Load(ctx, d.ID)
	}

	listings := make([]DoctorListing, 0, len(doctors))
	for i, d := range doctors {
		windows, err := windowThunks[i]()
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		booked, err := bookedThunks[i]()
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}

		clinics := make([]ClinicSchedule, 0, len(windows))
		for _, w := range windows {
			clinics = append(clinics, ClinicSchedule{
				Window: w,
				Booked: scheduling.BookedInWindow(w, booked),
			})
		}
		listings = append(listings, DoctorListing{Doctor: d, Clinics: clinics})
	}

	return listings, nil
}
