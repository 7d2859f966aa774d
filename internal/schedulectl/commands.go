// Package schedulectl runs the scheduling core offline on YAML documents.
package schedulectl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
)

type options struct {
	input   string
	verbose bool
	now     func() time.Time
}

// NewRootCommand builds the schedulectl command tree. now supplies "today"
// when a document does not name one.
func NewRootCommand(now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	opts := &options{now: now}

	root := &cobra.Command{
		Use:           "schedulectl",
		Short:         "Run the scheduling engine on a YAML document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.input, "file", "f", "-", "YAML document to read (- for stdin)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log skipped windows to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "slots",
			Short: "Project a doctor's free slots over the coming days",
			Long: `Reads clinic windows and taken bookings and prints the free slots per day.

Example document:
  doctor_id: doc-1
  today: 2026-03-02
  days: 7
  windows:
    - clinic_name: City Clinic
      days: Mon, Wed
      morning_slot: 09:00 AM - 10:00 AM
      slot_duration_minutes: 30
  booked:
    - clinic_name: City Clinic
      date: 2026-03-02
      time: "09:30"`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.run(cmd, opts.slots)
			},
		},
		&cobra.Command{
			Use:   "recurrence",
			Short: "Plan the vitals checkpoints of a service session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.run(cmd, opts.recurrence)
			},
		},
		&cobra.Command{
			Use:   "doses",
			Short: "Compute medication dose times from meal times and dosage codes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.run(cmd, opts.doses)
			},
		},
	)
	return root
}

func (o *options) run(cmd *cobra.Command, fn func(io.Reader, zerolog.Logger) (interface{}, error)) error {
	in := cmd.InOrStdin()
	if o.input != "-" {
		f, err := os.Open(o.input)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer f.Close()
		in = f
	}

	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	result, err := fn(in, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (o *options) slots(r io.Reader, logger zerolog.Logger) (interface{}, error) {
	var doc SlotsDocument
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	loc, err := location(doc.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := parseDate(doc.Today, loc, entities.Date(o.now().In(loc)))
	if err != nil {
		return nil, err
	}

	windows := make([]entities.AvailabilityWindow, 0, len(doc.Windows))
	for _, w := range doc.Windows {
		if w.Unavailable {
			continue
		}
		windows = append(windows, w.window(doc.DoctorID))
	}

	booked := make([]entities.BookedInstant, 0, len(doc.Booked))
	for _, b := range doc.Booked {
		date, err := parseDate(b.Date, loc, time.Time{})
		if err != nil {
			return nil, err
		}
		if date.IsZero() {
			return nil, fmt.Errorf("booking at %s has no date", b.Time)
		}
		booked = append(booked, entities.BookedInstant{
			DoctorID:   doc.DoctorID,
			ClinicName: b.ClinicName,
			Date:       date,
			Time:       b.Time,
		})
	}

	projection := scheduling.NewProjector(logger).Project(scheduling.ProjectionInput{
		DoctorID:     doc.DoctorID,
		Today:        today,
		Days:         doc.Days,
		SlotDuration: time.Duration(doc.SlotDurationMinutes) * time.Minute,
		Windows:      windows,
		Booked:       booked,
	})
	return projection, nil
}

// recurrenceResult holds times of day for a dateless document and absolute
// checkpoints otherwise
type recurrenceResult struct {
	Frequency   entities.FrequencyPolicy `json:"frequency"`
	Times       []entities.TimeOfDay     `json:"times,omitempty"`
	Checkpoints []time.Time              `json:"checkpoints,omitempty"`
}

func (o *options) recurrence(r io.Reader, _ zerolog.Logger) (interface{}, error) {
	var doc RecurrenceDocument
	if err := decode(r, &doc); err != nil {
		return nil, err
	}

	result := recurrenceResult{Frequency: doc.Frequency}
	if doc.StartDate == "" && doc.EndDate == "" {
		times, err := scheduling.PlanRecurrence(doc.Frequency, doc.StartTime, doc.EndTime)
		if err != nil {
			return nil, err
		}
		result.Times = times
		return result, nil
	}

	loc, err := location(doc.Timezone)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(doc.StartDate, loc, time.Time{})
	if err != nil {
		return nil, err
	}
	end, err := parseDate(doc.EndDate, loc, start)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = end
	}

	checkpoints, err := scheduling.PlanSession(doc.Frequency, entities.SessionWindow{
		StartDate: start,
		EndDate:   end,
		StartTime: doc.StartTime,
		EndTime:   doc.EndTime,
	}, loc)
	if err != nil {
		return nil, err
	}
	result.Checkpoints = checkpoints
	return result, nil
}

func (o *options) doses(r io.Reader, _ zerolog.Logger) (interface{}, error) {
	var doc DosesDocument
	if err := decode(r, &doc); err != nil {
		return nil, err
	}

	req := doc.MedicationRequest
	// computed only, never stored
	req.SessionID = ""
	start, err := parseDate(doc.StartDate, time.UTC, entities.Date(o.now().UTC()))
	if err != nil {
		return nil, err
	}
	req.StartDate = start

	svc := services.NewMedicationService(nil, nil, time.Duration(doc.OffsetMinutes)*time.Minute)
	schedules, err := svc.Schedule(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"schedules": schedules}, nil
}
