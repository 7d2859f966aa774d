package main

import (
	"context"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	"github.com/zatekoja/carebooking/pkg/config"
	"github.com/zatekoja/carebooking/pkg/secrets"
)

func main() {
	if err := secrets.Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load secrets")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("carebooking-seed", cfg.Environment)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	db := goqu.New("postgres", pgClient.DB())
	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				medication_doses,
				medication_schedules,
				vitals_checkpoints,
				service_sessions,
				doctor_appointments,
				doctors_availability,
				doctors,
				specializations
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	// 1. Specializations
	specializations := []goqu.Record{
		{"id": "general-medicine", "name": "General Medicine"},
		{"id": "cardiology", "name": "Cardiology"},
		{"id": "paediatrics", "name": "Paediatrics"},
	}
	if _, err := db.Insert("specializations").Rows(specializations).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed specializations")
	}

	// 2. Doctors
	now := time.Now()
	doctors := []entities.Doctor{
		{ID: "doc-anand", Name: "Dr. Anand Rao", SpecializationID: "general-medicine", Qualification: "MBBS, MD", ExperienceYears: 12, ConsultationFee: 500, SlotDurationMinutes: 30},
		{ID: "doc-meera", Name: "Dr. Meera Iyer", SpecializationID: "cardiology", Qualification: "MBBS, DM", ExperienceYears: 18, ConsultationFee: 1200, SlotDurationMinutes: 20},
		{ID: "doc-kabir", Name: "Dr. Kabir Shah", SpecializationID: "paediatrics", Qualification: "MBBS, DCH", ExperienceYears: 7, ConsultationFee: 400, SlotDurationMinutes: 15},
	}
	for _, d := range doctors {
		_, err := db.Insert("doctors").Rows(goqu.Record{
			"id":                    d.ID,
			"name":                  d.Name,
			"specialization_id":     d.SpecializationID,
			"qualification":         d.Qualification,
			"experience_years":      d.ExperienceYears,
			"consultation_fee":      d.ConsultationFee,
			"slot_duration_minutes": d.SlotDurationMinutes,
			"is_active":             true,
			"created_at":            now,
			"updated_at":            now,
		}).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
		if err != nil {
			log.Error().Err(err).Str("doctor", d.Name).Msg("Failed to create doctor")
		}
	}

	// 3. Weekly clinic windows
	windows := []entities.AvailabilityWindow{
		{
			DoctorID: "doc-anand", ClinicName: "City Clinic", ClinicAddress: "12 MG Road", ClinicMobile: "+91 98450 00001",
			Days:        entities.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday),
			MorningSlot: "09:00 AM - 01:00 PM", EveningSlot: "06:00 PM - 08:00 PM",
		},
		{
			DoctorID: "doc-anand", ClinicName: "Lake View Clinic", ClinicAddress: "4 Lake Road",
			Days:          entities.NewWeekdaySet(time.Tuesday, time.Thursday),
			AfternoonSlot: "02:00 PM - 05:00 PM",
		},
		{
			DoctorID: "doc-meera", ClinicName: "Heart Care Centre", ClinicAddress: "88 Residency Road", ClinicMobile: "+91 98450 00002",
			Days:        entities.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
			MorningSlot: "10:00 AM - 12:00 PM", SlotDurationMinutes: 30,
		},
		{
			DoctorID: "doc-kabir", ClinicName: "Little Steps Clinic", ClinicAddress: "21 Church Street",
			Days:        entities.NewWeekdaySet(time.Saturday, time.Sunday),
			MorningSlot: "08:30 AM - 11:30 AM", EveningSlot: "05:00 PM - 07:00 PM",
		},
	}
	for _, w := range windows {
		_, err := db.Insert("doctors_availability").Rows(goqu.Record{
			"id":                    uuid.New().String(),
			"doctor_id":             w.DoctorID,
			"clinic_name":           w.ClinicName,
			"clinic_address":        w.ClinicAddress,
			"clinic_mobile":         w.ClinicMobile,
			"days":                  w.Days,
			"morning_slot":          nullable(w.MorningSlot),
			"afternoon_slot":        nullable(w.AfternoonSlot),
			"evening_slot":          nullable(w.EveningSlot),
			"slot_duration_minutes": w.SlotDurationMinutes,
			"availability":          true,
			"active_flag":           true,
			"created_at":            now,
			"updated_at":            now,
		}).Executor().ExecContext(ctx)
		if err != nil {
			log.Error().Err(err).Str("doctor_id", w.DoctorID).Str("clinic", w.ClinicName).Msg("Failed to create availability window")
		}
	}

	log.Info().
		Int("specializations", len(specializations)).
		Int("doctors", len(doctors)).
		Int("windows", len(windows)).
		Msg("Seeding complete")
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
