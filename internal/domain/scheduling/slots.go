package scheduling

import (
	"fmt"
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// GenerateSlots enumerates slot starts of the given duration inside each
// window. A slot is only emitted when it ends at or before the window end.
// Output follows window order; a start already produced by an earlier,
// overlapping window is not repeated.
func GenerateSlots(windows []TimeWindow, duration time.Duration) ([]entities.TimeOfDay, error) {
	if duration <= 0 {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("slot duration must be positive, got %s", duration))
	}

	slots := make([]entities.TimeOfDay, 0)
	seen := make(map[entities.TimeOfDay]struct{})

	for _, w := range windows {
		end := w.End.Duration()
		for t := w.Start.Duration(); t+duration <= end; t += duration {
			slot := entities.TimeOfDay(t)
			if _, dup := seen[slot]; dup {
				continue
			}
			seen[slot] = struct{}{}
			slots = append(slots, slot)
		}
	}

	return slots, nil
}
