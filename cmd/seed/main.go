package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/availability"
	"github.com/Daninc24/healthtech/internal/db"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	providerIDs, err := seedProviders(context.Background(), pool, 50, log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}
	if err := seedPatients(context.Background(), pool, 2000, log); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedTemplates(context.Background(), pool, providerIDs, log); err != nil {
		log.Fatal().Err(err).Msg("seed availability templates")
	}

	log.Info().Msg("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int, log zerolog.Logger) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding providers")

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("providers seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients seeded batch")
	}

	return nil
}

// seedTemplates gives every provider a Monday-Friday template with a lunch
// break, with varied working hours.
func seedTemplates(ctx context.Context, pool *pgxpool.Pool, providerIDs []uuid.UUID, log zerolog.Logger) error {
	log.Info().Int("count", len(providerIDs)).Msg("seeding availability templates")

	repo := availability.NewPgRepository(pool)
	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

	for _, providerID := range providerIDs {
		startHour := gofakeit.Number(8, 10)

		entries := make([]availability.EntryInput, 0, len(weekdays))
		for _, day := range weekdays {
			entries = append(entries, availability.EntryInput{
				Weekday:     day,
				StartTime:   availability.FormatClock(startHour * 60),
				EndTime:     availability.FormatClock((startHour + 8) * 60),
				IsAvailable: gofakeit.Number(0, 9) > 0, // occasional day off
				Breaks: []availability.BreakInput{
					{Start: "12:30", End: "13:30"},
				},
			})
		}

		tmpl, err := availability.BuildTemplate(providerID, entries)
		if err != nil {
			return err
		}
		if _, err := repo.Put(ctx, tmpl); err != nil {
			return err
		}
	}

	log.Info().Msg("availability templates seeded")
	return nil
}
