package scheduling

import (
	"fmt"
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// DefaultDoseOffset is how far a dose sits before or after its meal
const DefaultDoseOffset = 15 * time.Minute

// DoseRequest describes one prescribed medicine
type DoseRequest struct {
	MedicineName string
	Timing       entities.DosageTiming
	Code         entities.DosageCode
	Meals        entities.MealSchedule
	// Offset overrides DefaultDoseOffset when positive.
	Offset time.Duration
}

// CalculateDoseTimings emits one dose per nonzero digit of the dosage code,
// in morning, afternoon, evening, dinner order. Every slot that carries a
// dose must have a meal time.
func CalculateDoseTimings(req DoseRequest) ([]entities.DoseEvent, error) {
	offset := req.Offset
	if offset <= 0 {
		offset = DefaultDoseOffset
	}

	switch req.Timing {
	case entities.DosageBeforeFood:
		offset = -offset
	case entities.DosageAfterFood:
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported dosage timing %q", req.Timing))
	}

	events := make([]entities.DoseEvent, 0, len(entities.MealSlots))
	for i, slot := range entities.MealSlots {
		qty := req.Code[i]
		if qty < 0 || qty > 9 {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("dosage code %s has invalid quantity %d", req.Code, qty))
		}
		if qty == 0 {
			continue
		}

		meal, ok := req.Meals.Get(slot)
		if !ok {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf(
				"%s: dosage code %s needs a %s meal time", req.MedicineName, req.Code, slot,
			))
		}

		events = append(events, entities.DoseEvent{
			MedicineName:     req.MedicineName,
			DosageTiming:     req.Timing,
			MedicationTiming: slot,
			Quantity:         qty,
			IntakeTime:       meal.Add(offset),
		})
	}

	return events, nil
}

// TotalQuantity is the number of units needed to cover days of treatment
func TotalQuantity(code entities.DosageCode, days int) int {
	if days <= 0 {
		return 0
	}
	return code.UnitsPerDay() * days
}
