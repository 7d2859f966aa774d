package database

import (
	"database/sql"
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// dateArg renders a calendar date for DATE columns, independent of location
func dateArg(t time.Time) string {
	return t.Format(entities.DateLayout)
}

func blockingStatuses() []string {
	statuses := entities.BlockingStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
