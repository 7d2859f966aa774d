package scheduling

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

var planAnchor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// PlanRecurrence returns the checkpoint times of a single session day.
//
// Hourly policies step from start up to and including end. When end is
// before start the session runs past midnight. TwiceADay on a single-instant
// session (start == end) also checks in twelve hours later.
func PlanRecurrence(policy entities.FrequencyPolicy, start, end entities.TimeOfDay) ([]entities.TimeOfDay, error) {
	offsets, err := planOffsets(policy, start, end)
	if err != nil {
		return nil, err
	}

	times := make([]entities.TimeOfDay, 0, len(offsets))
	for _, off := range offsets {
		times = append(times, start.Add(off))
	}
	return times, nil
}

// PlanSession expands the policy over every day of the session window and
// returns absolute checkpoints in loc, ascending and without duplicates.
func PlanSession(policy entities.FrequencyPolicy, window entities.SessionWindow, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	first := dateIn(window.StartDate, loc)
	last := dateIn(window.EndDate, loc)
	if first.After(last) {
		return nil, apperrors.NewValidationError(fmt.Sprintf(
			"session start date %s is after end date %s",
			first.Format(entities.DateLayout), last.Format(entities.DateLayout),
		))
	}

	offsets, err := planOffsets(policy, window.StartTime, window.EndTime)
	if err != nil {
		return nil, err
	}

	days, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Until:   last,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to expand session days", err)
	}

	seen := make(map[int64]struct{})
	checkpoints := make([]time.Time, 0)
	for _, d := range days.All() {
		base := window.StartTime.On(d.In(loc))
		for _, off := range offsets {
			at := base.Add(off)
			if _, dup := seen[at.Unix()]; dup {
				continue
			}
			seen[at.Unix()] = struct{}{}
			checkpoints = append(checkpoints, at)
		}
	}

	slices.SortFunc(checkpoints, func(a, b time.Time) int { return a.Compare(b) })
	return checkpoints, nil
}

// planOffsets returns checkpoint offsets relative to the session start
func planOffsets(policy entities.FrequencyPolicy, start, end entities.TimeOfDay) ([]time.Duration, error) {
	span := end.Duration() - start.Duration()
	if span < 0 {
		span += 24 * time.Hour
	}

	switch policy {
	case entities.FrequencyTwicePerSession:
		return []time.Duration{0, span}, nil

	case entities.FrequencyEveryOneHour:
		return hourlyOffsets(1, span)

	case entities.FrequencyEveryTwoHours:
		return hourlyOffsets(2, span)

	case entities.FrequencyTwiceADay:
		if span == 0 {
			return []time.Duration{0, 12 * time.Hour, 0}, nil
		}
		return []time.Duration{0, span}, nil

	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported frequency policy %s", policy))
	}
}

// hourlyOffsets steps every interval hours across [0, span], both ends inclusive
func hourlyOffsets(interval int, span time.Duration) ([]time.Duration, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.HOURLY,
		Interval: interval,
		Dtstart:  planAnchor,
		Until:    planAnchor.Add(span),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build hourly recurrence", err)
	}

	occurrences := rule.All()
	offsets := make([]time.Duration, 0, len(occurrences))
	for _, at := range occurrences {
		offsets = append(offsets, at.Sub(planAnchor))
	}
	return offsets, nil
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
