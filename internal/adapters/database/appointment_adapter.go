package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

const appointmentsTable = "doctor_appointments"

var appointmentColumns = []interface{}{
	"id", "doctor_id", "subscriber_id", "book_for_id", "clinic_name",
	"appointment_date", "appointment_time", "status", "notes",
	"created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts an appointment after checking its slot is free. The slot
// row is locked for the rest of the transaction and the partial unique index
// on active bookings rejects any insert that races past the check.
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.DoctorAppointment) error {
	now := time.Now()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now
	if appointment.Status == "" {
		appointment.Status = entities.AppointmentStatusScheduled
	}

	record := goqu.Record{
		"id":               appointment.ID,
		"doctor_id":        appointment.DoctorID,
		"subscriber_id":    appointment.SubscriberID,
		"book_for_id":      nullString(appointment.BookForID),
		"clinic_name":      appointment.ClinicName,
		"appointment_date": dateArg(appointment.AppointmentDate),
		"appointment_time": appointment.AppointmentTime,
		"status":           string(appointment.Status),
		"notes":            nullString(appointment.Notes),
		"created_at":       appointment.CreatedAt,
		"updated_at":       appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert(appointmentsTable).Rows(record).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := a.ensureSlotFree(ctx, tx, appointment.Instant(), ""); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return postgres.ClassifyError(slotTakenMessage(appointment.Instant()), err)
		}
		return nil
	})
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.DoctorAppointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// Reschedule moves an active appointment to a new slot
func (a *AppointmentAdapter) Reschedule(ctx context.Context, appointment *entities.DoctorAppointment) error {
	appointment.UpdatedAt = time.Now()
	appointment.Status = entities.AppointmentStatusRescheduled

	query, args, err := a.db.Update(appointmentsTable).
		Set(goqu.Record{
			"clinic_name":      appointment.ClinicName,
			"appointment_date": dateArg(appointment.AppointmentDate),
			"appointment_time": appointment.AppointmentTime,
			"status":           string(appointment.Status),
			"notes":            nullString(appointment.Notes),
			"updated_at":       appointment.UpdatedAt,
		}).
		Where(goqu.Ex{"id": appointment.ID, "status": blockingStatuses()}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build reschedule query", err)
	}

	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := a.ensureSlotFree(ctx, tx, appointment.Instant(), appointment.ID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return postgres.ClassifyError(slotTakenMessage(appointment.Instant()), err)
		}
		return requireAffected(result, fmt.Sprintf("active appointment with id %s not found", appointment.ID))
	})
}

// Cancel releases an active appointment's slot
func (a *AppointmentAdapter) Cancel(ctx context.Context, id string) error {
	query, args, err := a.db.Update(appointmentsTable).
		Set(goqu.Record{
			"status":     string(entities.AppointmentStatusCancelled),
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": blockingStatuses()}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return postgres.ClassifyError("failed to cancel appointment", err)
	}
	return requireAffected(result, fmt.Sprintf("active appointment with id %s not found", id))
}

// ListBookedInstants returns the slots held by a doctor's active appointments
func (a *AppointmentAdapter) ListBookedInstants(ctx context.Context, doctorID string, from, to time.Time) ([]entities.BookedInstant, error) {
	return a.listBooked(ctx, goqu.Ex{"doctor_id": doctorID}, from, to)
}

// ListBookedInstantsByDoctors returns booked slots for several doctors at once
func (a *AppointmentAdapter) ListBookedInstantsByDoctors(ctx context.Context, doctorIDs []string, from, to time.Time) ([]entities.BookedInstant, error) {
	if len(doctorIDs) == 0 {
		return []entities.BookedInstant{}, nil
	}
	return a.listBooked(ctx, goqu.Ex{"doctor_id": doctorIDs}, from, to)
}

func (a *AppointmentAdapter) listBooked(ctx context.Context, doctors goqu.Ex, from, to time.Time) ([]entities.BookedInstant, error) {
	query, args, err := a.db.Select("doctor_id", "clinic_name", "appointment_date", "appointment_time").
		From(appointmentsTable).
		Where(
			doctors,
			goqu.Ex{"status": blockingStatuses()},
			goqu.C("appointment_date").Gte(dateArg(from)),
			goqu.C("appointment_date").Lt(dateArg(to)),
		).
		Order(goqu.I("appointment_date").Asc(), goqu.I("appointment_time").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build booked slots query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list booked slots", err)
	}
	defer rows.Close()

	booked := make([]entities.BookedInstant, 0)
	for rows.Next() {
		var b entities.BookedInstant
		if err := rows.Scan(&b.DoctorID, &b.ClinicName, &b.Date, &b.Time); err != nil {
			return nil, apperrors.NewInternalError("failed to scan booked slot", err)
		}
		booked = append(booked, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate booked slots", err)
	}
	return booked, nil
}

// ListBySubscriber retrieves appointments for a subscriber, newest first
func (a *AppointmentAdapter) ListBySubscriber(ctx context.Context, subscriberID string, filter repositories.AppointmentFilter) ([]*entities.DoctorAppointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(goqu.Ex{"subscriber_id": subscriberID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("appointment_date").Gte(dateArg(*filter.From)))
	}

	if filter.To != nil {
		ds = ds.Where(goqu.C("appointment_date").Lte(dateArg(*filter.To)))
	}

	ds = ds.Order(goqu.I("appointment_date").Desc(), goqu.I("appointment_time").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := make([]*entities.DoctorAppointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}
	return appointments, nil
}

// ensureSlotFree locks any active booking on the instant and fails with
// CONFLICT when one exists. exceptID skips the appointment being moved.
func (a *AppointmentAdapter) ensureSlotFree(ctx context.Context, tx *sql.Tx, instant entities.BookedInstant, exceptID string) error {
	ds := a.db.Select("id").
		From(appointmentsTable).
		Where(goqu.Ex{
			"doctor_id":        instant.DoctorID,
			"clinic_name":      instant.ClinicName,
			"appointment_date": dateArg(instant.Date),
			"appointment_time": instant.Time,
			"status":           blockingStatuses(),
		})
	if exceptID != "" {
		ds = ds.Where(goqu.C("id").Neq(exceptID))
	}

	query, args, err := ds.Limit(1).ForUpdate(exp.Wait).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot check query", err)
	}

	var holder string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&holder)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return postgres.ClassifyError("failed to check slot", err)
	default:
		return apperrors.NewConflictError(slotTakenMessage(instant))
	}
}

func slotTakenMessage(instant entities.BookedInstant) string {
	return fmt.Sprintf("slot %s %s at %s is already booked",
		dateArg(instant.Date), instant.Time, instant.ClinicName)
}

func requireAffected(result sql.Result, notFound string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}

func scanAppointment(row rowScanner) (*entities.DoctorAppointment, error) {
	appointment := &entities.DoctorAppointment{}
	var bookForID, notes sql.NullString
	err := row.Scan(
		&appointment.ID,
		&appointment.DoctorID,
		&appointment.SubscriberID,
		&bookForID,
		&appointment.ClinicName,
		&appointment.AppointmentDate,
		&appointment.AppointmentTime,
		&appointment.Status,
		&notes,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appointment.BookForID = bookForID.String
	appointment.Notes = notes.String
	return appointment, nil
}
