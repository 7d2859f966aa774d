// Package scheduling turns weekly clinic availability into concrete bookable
// slots and plans recurring vitals checkpoints and medication doses.
//
// Everything here is a pure function of its inputs: no I/O, no shared
// mutable state. Callers fetch windows and bookings up front and may invoke
// the package concurrently from any number of goroutines.
package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// TimeWindow is a parsed [Start, End) range within a single day
type TimeWindow struct {
	Start entities.TimeOfDay
	End   entities.TimeOfDay
	Raw   string
}

// Length returns the span of the window
func (w TimeWindow) Length() time.Duration {
	return w.End.Duration() - w.Start.Duration()
}

// ParseTimeWindow parses "09:00 AM - 01:00 PM". Both ends must use the
// 12-hour form and the end must be after the start.
func ParseTimeWindow(raw string) (TimeWindow, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return TimeWindow{}, fmt.Errorf("time window %q: expected \"<start> - <end>\"", raw)
	}

	start, err := entities.ParseClockTime(parts[0])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("time window %q: start: %w", raw, err)
	}
	end, err := entities.ParseClockTime(parts[1])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("time window %q: end: %w", raw, err)
	}
	if !end.After(start) {
		return TimeWindow{}, fmt.Errorf("time window %q: end %s is not after start %s", raw, end, start)
	}

	return TimeWindow{Start: start, End: end, Raw: strings.TrimSpace(raw)}, nil
}

// ParseTimeWindows parses every raw range, logging and skipping the ones
// that do not parse. The result keeps input order.
func ParseTimeWindows(logger zerolog.Logger, raws ...string) []TimeWindow {
	windows := make([]TimeWindow, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		w, err := ParseTimeWindow(raw)
		if err != nil {
			logger.Warn().Err(err).Str("window", raw).Msg("skipping malformed availability window")
			continue
		}
		windows = append(windows, w)
	}
	return windows
}
