package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// FrequencyPolicy controls how vitals checkpoints recur within a session
type FrequencyPolicy int

const (
	FrequencyTwicePerSession FrequencyPolicy = iota + 1
	FrequencyEveryOneHour
	FrequencyEveryTwoHours
	FrequencyTwiceADay
)

var frequencyNames = map[FrequencyPolicy]string{
	FrequencyTwicePerSession: "Twice per session",
	FrequencyEveryOneHour:    "Every one hour",
	FrequencyEveryTwoHours:   "Every two hours",
	FrequencyTwiceADay:       "Twice a day",
}

// frequency aliases, keyed by normalized name
var frequencyAliases = map[string]FrequencyPolicy{
	"twicepersession": FrequencyTwicePerSession,
	"everyonehour":    FrequencyEveryOneHour,
	"every1hour":      FrequencyEveryOneHour,
	"hourly":          FrequencyEveryOneHour,
	"everytwohours":   FrequencyEveryTwoHours,
	"every2hours":     FrequencyEveryTwoHours,
	"twiceaday":       FrequencyTwiceADay,
	"twicedaily":      FrequencyTwiceADay,
}

func (p FrequencyPolicy) String() string {
	if name, ok := frequencyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("FrequencyPolicy(%d)", int(p))
}

// Valid reports whether p is a known policy
func (p FrequencyPolicy) Valid() bool {
	_, ok := frequencyNames[p]
	return ok
}

// ParseFrequencyPolicy accepts the display names ("Every two hours") as well as
// compact forms ("every_two_hours", "EveryTwoHours")
func ParseFrequencyPolicy(s string) (FrequencyPolicy, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))

	if p, ok := frequencyAliases[key]; ok {
		return p, nil
	}
	return 0, apperrors.NewConfigurationError(fmt.Sprintf("unsupported frequency policy %q", s))
}

func (p FrequencyPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *FrequencyPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFrequencyPolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *FrequencyPolicy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseFrequencyPolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Scan implements sql.Scanner for the session_frequency column
func (p *FrequencyPolicy) Scan(src interface{}) error {
	raw, err := scanText(src, "FrequencyPolicy")
	if err != nil {
		return err
	}
	parsed, err := ParseFrequencyPolicy(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p FrequencyPolicy) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid frequency policy %d", int(p))
	}
	return p.String(), nil
}

// SessionWindow is the daily time range and date span of a care session
type SessionWindow struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

// SessionStatus represents the lifecycle state of a service session
type SessionStatus string

const (
	SessionStatusListed    SessionStatus = "Listed"
	SessionStatusActive    SessionStatus = "Active"
	SessionStatusCompleted SessionStatus = "Completed"
	SessionStatusCancelled SessionStatus = "Cancelled"
)

// ServiceSession is a home-care engagement during which vitals are recorded
type ServiceSession struct {
	ID                string          `json:"id" db:"id"`
	SubscriberID      string          `json:"subscriber_id" db:"subscriber_id"`
	BookForID         string          `json:"book_for_id,omitempty" db:"book_for_id"`
	ServiceProviderID string          `json:"service_provider_id" db:"sp_id"`
	PrescriptionID    string          `json:"prescription_id,omitempty" db:"prescription_id"`
	VisitType         string          `json:"visit_type,omitempty" db:"visit_type"`
	Frequency         FrequencyPolicy `json:"frequency" db:"session_frequency"`
	Window            SessionWindow   `json:"window"`
	Status            SessionStatus   `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// VitalsCheckpoint is a moment at which the caregiver records vitals
type VitalsCheckpoint struct {
	ID          string    `json:"id" db:"id"`
	SessionID   string    `json:"session_id" db:"session_id"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	Recorded    bool      `json:"recorded" db:"recorded"`
}
