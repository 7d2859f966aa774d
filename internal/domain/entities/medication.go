package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// DosageTiming places a dose relative to the meal it is tied to
type DosageTiming string

const (
	DosageBeforeFood DosageTiming = "Before Food"
	DosageAfterFood  DosageTiming = "After Food"
)

// ParseDosageTiming accepts "Before Food", "before_food", "BeforeFood" and the like
func ParseDosageTiming(s string) (DosageTiming, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "beforefood", "beforemeal", "before":
		return DosageBeforeFood, nil
	case "afterfood", "aftermeal", "after":
		return DosageAfterFood, nil
	}
	return "", apperrors.NewConfigurationError(fmt.Sprintf("unsupported dosage timing %q", s))
}

func (t *DosageTiming) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDosageTiming(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *DosageTiming) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDosageTiming(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MealSlot is one of the four daily intake positions of a dosage code
type MealSlot int

const (
	MealMorning MealSlot = iota
	MealAfternoon
	MealEvening
	MealDinner
)

// MealSlots lists the slots in dosage-code digit order
var MealSlots = [4]MealSlot{MealMorning, MealAfternoon, MealEvening, MealDinner}

var mealSlotNames = [4]string{"morning", "afternoon", "evening", "dinner"}

func (m MealSlot) String() string {
	if m < 0 || int(m) >= len(mealSlotNames) {
		return fmt.Sprintf("MealSlot(%d)", int(m))
	}
	return mealSlotNames[m]
}

// ParseMealSlot parses a slot name such as "morning"
func ParseMealSlot(s string) (MealSlot, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range mealSlotNames {
		if name == key {
			return MealSlot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown meal slot %q", s)
}

func (m *MealSlot) Scan(src interface{}) error {
	raw, err := scanText(src, "MealSlot")
	if err != nil {
		return err
	}
	parsed, err := ParseMealSlot(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m MealSlot) Value() (driver.Value, error) {
	return m.String(), nil
}

// MealSchedule holds the subscriber's meal times, one per slot
type MealSchedule struct {
	times [4]TimeOfDay
	set   [4]bool
}

// Set records the meal time for a slot
func (s *MealSchedule) Set(slot MealSlot, t TimeOfDay) {
	s.times[slot] = t
	s.set[slot] = true
}

// Get returns the meal time for a slot and whether it is configured
func (s MealSchedule) Get(slot MealSlot) (TimeOfDay, bool) {
	return s.times[slot], s.set[slot]
}

// NewMealSchedule builds a schedule from a slot-name map
func NewMealSchedule(times map[string]TimeOfDay) (MealSchedule, error) {
	var s MealSchedule
	for name, t := range times {
		slot, err := ParseMealSlot(name)
		if err != nil {
			return MealSchedule{}, apperrors.NewValidationError(err.Error())
		}
		s.Set(slot, t)
	}
	return s, nil
}

func (s MealSchedule) toMap() map[string]TimeOfDay {
	out := make(map[string]TimeOfDay, 4)
	for _, slot := range MealSlots {
		if t, ok := s.Get(slot); ok {
			out[slot.String()] = t
		}
	}
	return out
}

func (s MealSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toMap())
}

func (s *MealSchedule) UnmarshalJSON(data []byte) error {
	var m map[string]TimeOfDay
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := NewMealSchedule(m)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *MealSchedule) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m map[string]TimeOfDay
	if err := unmarshal(&m); err != nil {
		return err
	}
	parsed, err := NewMealSchedule(m)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DosageCode is a 4-digit intake pattern; digit i is the number of units
// taken at MealSlots[i]. "1-0-1-0" means one unit morning and evening.
type DosageCode [4]int

// ParseDosageCode accepts "1-0-1-0" or "1010"
func ParseDosageCode(s string) (DosageCode, error) {
	compact := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s))
	if len(compact) != 4 {
		return DosageCode{}, apperrors.NewConfigurationError(fmt.Sprintf("dosage code %q must have exactly 4 digits", s))
	}
	var code DosageCode
	for i, r := range compact {
		if r < '0' || r > '9' {
			return DosageCode{}, apperrors.NewConfigurationError(fmt.Sprintf("dosage code %q contains non-digit %q", s, r))
		}
		code[i] = int(r - '0')
	}
	return code, nil
}

func (c DosageCode) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", c[0], c[1], c[2], c[3])
}

// UnitsPerDay sums the digits
func (c DosageCode) UnitsPerDay() int {
	return c[0] + c[1] + c[2] + c[3]
}

func (c DosageCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *DosageCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDosageCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *DosageCode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDosageCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *DosageCode) Scan(src interface{}) error {
	raw, err := scanText(src, "DosageCode")
	if err != nil {
		return err
	}
	parsed, err := ParseDosageCode(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c DosageCode) Value() (driver.Value, error) {
	return c.String(), nil
}

// DoseEvent is one scheduled intake of a medicine
type DoseEvent struct {
	MedicineName     string       `json:"medicine_name"`
	DosageTiming     DosageTiming `json:"dosage_timing"`
	MedicationTiming MealSlot     `json:"-"`
	Quantity         int          `json:"quantity"`
	IntakeTime       TimeOfDay    `json:"intake_timing"`
}

func (e DoseEvent) MarshalJSON() ([]byte, error) {
	type alias DoseEvent
	return json.Marshal(struct {
		alias
		MedicationTiming string `json:"medication_timing"`
	}{alias(e), e.MedicationTiming.String()})
}

// MedicationSchedule is the persisted daily plan for one medicine in a session
type MedicationSchedule struct {
	ID            string       `json:"id" db:"id"`
	SessionID     string       `json:"session_id" db:"session_id"`
	MedicineName  string       `json:"medicine_name" db:"medicine_name"`
	DosageCode    DosageCode   `json:"dosage_code" db:"dosage_code"`
	DosageTiming  DosageTiming `json:"dosage_timing" db:"dosage_timing"`
	Days          int          `json:"days" db:"days"`
	TotalQuantity int          `json:"total_quantity" db:"total_quantity"`
	Doses         []DoseEvent  `json:"doses"`
	StartDate     time.Time    `json:"start_date" db:"start_date"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
