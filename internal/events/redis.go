// Package events publishes appointment lifecycle events for downstream
// consumers such as the notification system. Delivery is at-least-once; the
// scheduling core never blocks on it.
package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/appointment"
)

// RedisPublisher appends events to a Redis Stream. Consumers read with
// consumer groups and acknowledge at their own pace.
type RedisPublisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, event string, appt appointment.Appointment) error {
	values := map[string]any{
		"event":          event,
		"appointment_id": appt.ID.String(),
		"provider_id":    appt.ProviderID.String(),
		"patient_id":     appt.PatientID.String(),
		"date":           appt.Date.Format("2006-01-02"),
		"time":           appt.Time,
		"status":         string(appt.Status),
		"emitted_at":     time.Now().UTC().Format(time.RFC3339),
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return err
	}

	p.log.Debug().Str("event", event).Str("appointment_id", appt.ID.String()).Msg("event published")
	return nil
}

// Nop discards events; used by tests and offline tooling.
type Nop struct{}

func (Nop) Publish(context.Context, string, appointment.Appointment) error { return nil }
