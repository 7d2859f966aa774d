package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

const (
	sessionsTable    = "service_sessions"
	checkpointsTable = "vitals_checkpoints"
)

var sessionColumns = []string{
	"id", "subscriber_id", "book_for_id", "sp_id", "prescription_id", "visit_type",
	"session_frequency", "start_date", "end_date", "start_time", "end_time",
	"status", "created_at", "updated_at",
}

// SessionAdapter implements the SessionRepository interface
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new service session adapter
func NewSessionAdapter(client *postgres.Client) repositories.SessionRepository {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a session and its checkpoints atomically
func (a *SessionAdapter) Create(ctx context.Context, session *entities.ServiceSession, checkpoints []entities.VitalsCheckpoint) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = entities.SessionStatusListed
	}

	record := goqu.Record{
		"id":                session.ID,
		"subscriber_id":     session.SubscriberID,
		"book_for_id":       nullString(session.BookForID),
		"sp_id":             session.ServiceProviderID,
		"prescription_id":   nullString(session.PrescriptionID),
		"visit_type":        nullString(session.VisitType),
		"session_frequency": session.Frequency,
		"start_date":        dateArg(session.Window.StartDate),
		"end_date":          dateArg(session.Window.EndDate),
		"start_time":        session.Window.StartTime,
		"end_time":          session.Window.EndTime,
		"status":            string(session.Status),
		"created_at":        session.CreatedAt,
		"updated_at":        session.UpdatedAt,
	}

	query, args, err := a.db.Insert(sessionsTable).Rows(record).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return postgres.ClassifyError("failed to create session", err)
		}
		return a.insertCheckpoints(ctx, tx, session.ID, checkpoints)
	})
}

// GetByID retrieves a session by ID
func (a *SessionAdapter) GetByID(ctx context.Context, id string) (*entities.ServiceSession, error) {
	query, args, err := a.db.Select(columnsOf("", sessionColumns)...).
		From(sessionsTable).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	session, err := scanSession(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}
	return session, nil
}

// ListCheckpoints returns a session's checkpoints in time order
func (a *SessionAdapter) ListCheckpoints(ctx context.Context, sessionID string) ([]entities.VitalsCheckpoint, error) {
	query, args, err := a.db.Select("id", "session_id", "scheduled_at", "recorded").
		From(checkpointsTable).
		Where(goqu.Ex{"session_id": sessionID}).
		Order(goqu.I("scheduled_at").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build checkpoint query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list checkpoints", err)
	}
	defer rows.Close()

	checkpoints := make([]entities.VitalsCheckpoint, 0)
	for rows.Next() {
		var c entities.VitalsCheckpoint
		if err := rows.Scan(&c.ID, &c.SessionID, &c.ScheduledAt, &c.Recorded); err != nil {
			return nil, apperrors.NewInternalError("failed to scan checkpoint", err)
		}
		checkpoints = append(checkpoints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate checkpoints", err)
	}
	return checkpoints, nil
}

// ListWithoutCheckpoints returns open sessions that were stored before their
// checkpoints were planned, oldest first. Pages are keyed on (created_at, id)
// so sessions that keep failing do not hide the ones behind them.
func (a *SessionAdapter) ListWithoutCheckpoints(ctx context.Context, after *repositories.SessionCursor, limit int) ([]*entities.ServiceSession, error) {
	planned := a.db.From(goqu.T(checkpointsTable).As("c")).
		Select(goqu.L("1")).
		Where(goqu.I("c.session_id").Eq(goqu.I("s.id")))

	ds := a.db.Select(columnsOf("s", sessionColumns)...).
		From(goqu.T(sessionsTable).As("s")).
		Where(
			goqu.I("s.status").In(string(entities.SessionStatusListed), string(entities.SessionStatusActive)),
			goqu.L("NOT EXISTS ?", planned),
		).
		Order(goqu.I("s.created_at").Asc(), goqu.I("s.id").Asc())
	if after != nil {
		ds = ds.Where(goqu.L("(?, ?) > (?, ?)", goqu.I("s.created_at"), goqu.I("s.id"), after.CreatedAt, after.ID))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build backlog query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sessions without checkpoints", err)
	}
	defer rows.Close()

	sessions := make([]*entities.ServiceSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan session", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sessions", err)
	}
	return sessions, nil
}

// AddCheckpoints stores checkpoints for an existing session, ignoring any
// already recorded at the same instant
func (a *SessionAdapter) AddCheckpoints(ctx context.Context, sessionID string, checkpoints []entities.VitalsCheckpoint) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		return a.insertCheckpoints(ctx, tx, sessionID, checkpoints)
	})
}

func (a *SessionAdapter) insertCheckpoints(ctx context.Context, tx *sql.Tx, sessionID string, checkpoints []entities.VitalsCheckpoint) error {
	if len(checkpoints) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(checkpoints))
	for i := range checkpoints {
		c := &checkpoints[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.SessionID = sessionID
		rows = append(rows, goqu.Record{
			"id":           c.ID,
			"session_id":   c.SessionID,
			"scheduled_at": c.ScheduledAt,
			"recorded":     c.Recorded,
		})
	}

	query, args, err := a.db.Insert(checkpointsTable).
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build checkpoint insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return postgres.ClassifyError("failed to store checkpoints", err)
	}
	return nil
}

func columnsOf(alias string, names []string) []interface{} {
	cols := make([]interface{}, len(names))
	for i, name := range names {
		if alias == "" {
			cols[i] = goqu.C(name)
		} else {
			cols[i] = goqu.I(alias + "." + name)
		}
	}
	return cols
}

func scanSession(row rowScanner) (*entities.ServiceSession, error) {
	session := &entities.ServiceSession{}
	var bookForID, prescriptionID, visitType sql.NullString
	err := row.Scan(
		&session.ID,
		&session.SubscriberID,
		&bookForID,
		&session.ServiceProviderID,
		&prescriptionID,
		&visitType,
		&session.Frequency,
		&session.Window.StartDate,
		&session.Window.EndDate,
		&session.Window.StartTime,
		&session.Window.EndTime,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.BookForID = bookForID.String
	session.PrescriptionID = prescriptionID.String
	session.VisitType = visitType.String
	return session, nil
}
