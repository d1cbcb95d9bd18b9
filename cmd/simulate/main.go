package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/config"
	"github.com/Daninc24/healthtech/internal/db"
)

// simulate drives concurrent booking traffic against a running api-server and
// checks the core invariant afterwards: no (provider, date, time) key may end
// up with more than one active appointment, no matter how hard workers race.

type simConfig struct {
	baseURL   string
	duration  time.Duration
	workers   int
	providers int
	date      string
}

type opMetrics struct {
	total     int64
	success   int64
	conflict  int64
	errored   int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *opMetrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *opMetrics) percentile(p int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "simulate").Logger()

	sim := simConfig{}
	flag.StringVar(&sim.baseURL, "base-url", "http://127.0.0.1:8080", "api-server base URL")
	flag.DurationVar(&sim.duration, "duration", 30*time.Second, "how long to run")
	flag.IntVar(&sim.workers, "workers", 32, "concurrent workers")
	flag.IntVar(&sim.providers, "providers", 5, "number of providers to contend on")
	flag.StringVar(&sim.date, "date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "date to book")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	providers, err := loadIDs(context.Background(), pool, `SELECT id FROM providers LIMIT $1`, sim.providers)
	if err != nil || len(providers) == 0 {
		log.Fatal().Err(err).Msg("load providers (run cmd/seed first)")
	}
	patients, err := loadIDs(context.Background(), pool, `SELECT id FROM patients LIMIT $1`, 500)
	if err != nil || len(patients) == 0 {
		log.Fatal().Err(err).Msg("load patients (run cmd/seed first)")
	}

	log.Info().
		Int("workers", sim.workers).
		Int("providers", len(providers)).
		Dur("duration", sim.duration).
		Msg("starting booking load")

	metrics := &opMetrics{}
	client := &http.Client{Timeout: 5 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), sim.duration)
	defer stop()

	var wg sync.WaitGroup
	for w := 0; w < sim.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				provider := providers[rng.Intn(len(providers))]
				patient := patients[rng.Intn(len(patients))]
				bookOnce(runCtx, client, sim, provider, patient, rng, metrics)
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	log.Info().
		Int64("total", atomic.LoadInt64(&metrics.total)).
		Int64("success", atomic.LoadInt64(&metrics.success)).
		Int64("conflict", atomic.LoadInt64(&metrics.conflict)).
		Int64("error", atomic.LoadInt64(&metrics.errored)).
		Dur("p50", metrics.percentile(50)).
		Dur("p95", metrics.percentile(95)).
		Msg("load finished")

	violations, err := countDoubleBookings(context.Background(), pool, sim.date)
	if err != nil {
		log.Fatal().Err(err).Msg("verify double bookings")
	}
	if violations > 0 {
		log.Fatal().Int("violations", violations).Msg("INVARIANT BROKEN: double-booked slots found")
	}
	log.Info().Msg("invariant holds: no slot has more than one active appointment")
}

func bookOnce(ctx context.Context, client *http.Client, sim simConfig, provider, patient uuid.UUID, rng *rand.Rand, metrics *opMetrics) {
	// Fetch the current slot list, then race on one of the first few
	// entries so workers contend hard on the same keys.
	slots, err := fetchSlots(ctx, client, sim, provider)
	if err != nil || len(slots) == 0 {
		return
	}
	slot := slots[rng.Intn(min(len(slots), 3))]

	body, _ := json.Marshal(map[string]any{
		"provider_id": provider.String(),
		"date":        sim.date,
		"time":        slot,
		"reason":      "load test booking",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sim.baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", patient.String())
	req.Header.Set("X-Actor-Role", "patient")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			metrics.record(time.Since(start), 0)
		}
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	metrics.record(time.Since(start), resp.StatusCode)
}

func fetchSlots(ctx context.Context, client *http.Client, sim simConfig, provider uuid.UUID) ([]string, error) {
	url := fmt.Sprintf("%s/providers/%s/slots?date=%s", sim.baseURL, provider, sim.date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("slots request failed: %d", resp.StatusCode)
	}

	var payload struct {
		Slots []string `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Slots, nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func countDoubleBookings(ctx context.Context, pool *pgxpool.Pool, date string) (int, error) {
	var violations int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT provider_id, date, start_time
			FROM appointments
			WHERE date = $1 AND status IN ('pending', 'confirmed')
			GROUP BY provider_id, date, start_time
			HAVING count(*) > 1
		) doubled
	`, date).Scan(&violations)
	return violations, err
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
