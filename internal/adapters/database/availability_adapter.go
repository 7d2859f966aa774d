package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

var availabilityColumns = []interface{}{
	"id", "doctor_id", "clinic_name", "clinic_address", "clinic_mobile", "days",
	"morning_slot", "afternoon_slot", "evening_slot", "slot_duration_minutes",
	"availability", "active_flag",
}

// AvailabilityAdapter implements the AvailabilityRepository interface
type AvailabilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAvailabilityAdapter creates a new availability window adapter
func NewAvailabilityAdapter(client *postgres.Client) repositories.AvailabilityRepository {
	return &AvailabilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListActiveByDoctor returns a doctor's active windows ordered by clinic
func (a *AvailabilityAdapter) ListActiveByDoctor(ctx context.Context, doctorID string) ([]entities.AvailabilityWindow, error) {
	return a.list(ctx, goqu.Ex{"doctor_id": doctorID, "active_flag": true})
}

// ListActiveByDoctors returns active windows for several doctors at once
func (a *AvailabilityAdapter) ListActiveByDoctors(ctx context.Context, doctorIDs []string) ([]entities.AvailabilityWindow, error) {
	if len(doctorIDs) == 0 {
		return []entities.AvailabilityWindow{}, nil
	}
	return a.list(ctx, goqu.Ex{"doctor_id": doctorIDs, "active_flag": true})
}

func (a *AvailabilityAdapter) list(ctx context.Context, where goqu.Ex) ([]entities.AvailabilityWindow, error) {
	query, args, err := a.db.Select(availabilityColumns...).
		From("doctors_availability").
		Where(where).
		Order(goqu.I("doctor_id").Asc(), goqu.I("clinic_name").Asc(), goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build availability query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list availability windows", err)
	}
	defer rows.Close()

	windows := make([]entities.AvailabilityWindow, 0)
	for rows.Next() {
		var w entities.AvailabilityWindow
		var morning, afternoon, evening sql.NullString
		err := rows.Scan(
			&w.ID,
			&w.DoctorID,
			&w.ClinicName,
			&w.ClinicAddress,
			&w.ClinicMobile,
			&w.Days,
			&morning,
			&afternoon,
			&evening,
			&w.SlotDurationMinutes,
			&w.Available,
			&w.Active,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan availability window", err)
		}
		w.MorningSlot = morning.String
		w.AfternoonSlot = afternoon.String
		w.EveningSlot = evening.String
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate availability windows", err)
	}
	return windows, nil
}
