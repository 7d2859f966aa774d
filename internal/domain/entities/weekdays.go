package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is the set of weekdays a clinic operates on
type WeekdaySet uint8

var weekdayCodes = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayCode returns the three-letter code ("Mon") for a weekday
func WeekdayCode(d time.Weekday) string {
	return weekdayCodes[d]
}

// NewWeekdaySet builds a set from the given days
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// ParseWeekdaySet parses a comma separated list such as "Mon, Wed, Fri".
// Full names ("Monday") are accepted; matching is case-insensitive.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, ok := parseWeekday(part)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		set |= 1 << uint(d)
	}
	return set, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	if len(s) < 3 {
		return 0, false
	}
	prefix := strings.ToLower(s[:3])
	for i, code := range weekdayCodes {
		if strings.ToLower(code) == prefix {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// Contains reports whether d is in the set
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Codes lists the members as codes, Sunday first
func (s WeekdaySet) Codes() []string {
	codes := make([]string, 0, 7)
	for i, code := range weekdayCodes {
		if s.Contains(time.Weekday(i)) {
			codes = append(codes, code)
		}
	}
	return codes
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Codes(), ", ")
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Codes())
}

func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		var joined string
		if err2 := json.Unmarshal(data, &joined); err2 != nil {
			return err
		}
		codes = []string{joined}
	}
	parsed, err := ParseWeekdaySet(strings.Join(codes, ","))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *WeekdaySet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var joined string
	if err := unmarshal(&joined); err != nil {
		var codes []string
		if err2 := unmarshal(&codes); err2 != nil {
			return err
		}
		joined = strings.Join(codes, ",")
	}
	parsed, err := ParseWeekdaySet(joined)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan implements sql.Scanner for the comma separated text column
func (s *WeekdaySet) Scan(src interface{}) error {
	if src == nil {
		*s = 0
		return nil
	}
	raw, err := scanText(src, "WeekdaySet")
	if err != nil {
		return err
	}
	parsed, err := ParseWeekdaySet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer
func (s WeekdaySet) Value() (driver.Value, error) {
	return s.String(), nil
}

// scanText extracts the text payload of a driver value
func scanText(src interface{}, into string) (string, error) {
	switch v := src.(type) {
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("cannot scan %T into %s", src, into)
	}
}
