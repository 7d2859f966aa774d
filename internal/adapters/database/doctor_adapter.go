package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

var doctorColumns = []interface{}{
	"id", "name", "specialization_id", "qualification", "experience_years",
	"consultation_fee", "slot_duration_minutes", "is_active", "created_at", "updated_at",
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves an active doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": id, "is_active": true}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// GetByIDs retrieves several doctors in one query
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}
	return a.list(ctx, goqu.Ex{"id": ids, "is_active": true})
}

// ListBySpecialization returns the active doctors of a specialization, by name
func (a *DoctorAdapter) ListBySpecialization(ctx context.Context, specializationID string) ([]*entities.Doctor, error) {
	return a.list(ctx, goqu.Ex{"specialization_id": specializationID, "is_active": true})
}

func (a *DoctorAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(where).
		Order(goqu.I("name").Asc(), goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := make([]*entities.Doctor, 0)
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}
	return doctors, nil
}

func scanDoctor(row rowScanner) (*entities.Doctor, error) {
	doctor := &entities.Doctor{}
	var qualification sql.NullString
	err := row.Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.SpecializationID,
		&qualification,
		&doctor.ExperienceYears,
		&doctor.ConsultationFee,
		&doctor.SlotDurationMinutes,
		&doctor.IsActive,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doctor.Qualification = qualification.String
	return doctor, nil
}
