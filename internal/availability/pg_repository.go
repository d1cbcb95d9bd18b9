package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Get(ctx context.Context, providerID uuid.UUID) (Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_min, end_min, is_available, breaks, updated_at
		FROM availability_entries
		WHERE provider_id = $1
		ORDER BY weekday
	`, providerID)
	if err != nil {
		return Template{}, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	tmpl := Template{ProviderID: providerID}
	for rows.Next() {
		var (
			weekday   int
			entry     Entry
			breaksRaw []byte
			updatedAt time.Time
		)
		if err := rows.Scan(&weekday, &entry.StartMin, &entry.EndMin, &entry.IsAvailable, &breaksRaw, &updatedAt); err != nil {
			return Template{}, fmt.Errorf("scan availability entry: %w", err)
		}
		entry.Weekday = time.Weekday(weekday)
		if len(breaksRaw) > 0 {
			if err := json.Unmarshal(breaksRaw, &entry.Breaks); err != nil {
				return Template{}, fmt.Errorf("decode breaks: %w", err)
			}
		}
		entry.Breaks = NormalizeBreaks(entry.Breaks)
		tmpl.Entries = append(tmpl.Entries, entry)
		if updatedAt.After(tmpl.UpdatedAt) {
			tmpl.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return Template{}, fmt.Errorf("read availability: %w", err)
	}
	if len(tmpl.Entries) == 0 {
		return Template{}, ErrTemplateNotFound
	}
	return tmpl, nil
}

// Put replaces the provider's whole template in one transaction.
func (r *PgRepository) Put(ctx context.Context, tmpl Template) (Template, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Template{}, fmt.Errorf("begin template write: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_entries WHERE provider_id = $1
	`, tmpl.ProviderID); err != nil {
		return Template{}, fmt.Errorf("clear availability: %w", err)
	}

	now := time.Now().UTC()
	for _, e := range tmpl.Entries {
		breaksRaw, err := json.Marshal(e.Breaks)
		if err != nil {
			return Template{}, fmt.Errorf("encode breaks: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_entries
				(provider_id, weekday, start_min, end_min, is_available, breaks, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, tmpl.ProviderID, int(e.Weekday), e.StartMin, e.EndMin, e.IsAvailable, breaksRaw, now); err != nil {
			return Template{}, fmt.Errorf("insert availability entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Template{}, fmt.Errorf("commit template write: %w", err)
	}

	tmpl.UpdatedAt = now
	return tmpl, nil
}
