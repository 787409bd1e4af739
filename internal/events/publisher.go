package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeFilterWritten is published after a filter's result set is persisted
	EventTypeFilterWritten EventType = "FILTER_WRITTEN"

	DefaultStream = "stream:harvest"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// FilterWrittenPayload is the JSON body carried in the stream entry's data field
type FilterWrittenPayload struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	RunID     string    `json:"run_id"`
	Filter    string    `json:"filter"`
	Count     int       `json:"count"`
	Values    []string  `json:"values"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher appends one stream entry per written filter.
type Publisher struct {
	redis  RedisClient
	stream string
	runID  uuid.UUID
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, runID uuid.UUID, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		runID:  runID,
		logger: logger.With("component", "event_publisher"),
	}
}

// Write implements the sink contract so the publisher can sit behind a fanout.
func (p *Publisher) Write(ctx context.Context, key string, values []string) error {
	payload := FilterWrittenPayload{
		EventID:   uuid.New().String(),
		EventType: string(EventTypeFilterWritten),
		RunID:     p.runID.String(),
		Filter:    key,
		Count:     len(values),
		Values:    values,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_type": payload.EventType,
			"event_id":   payload.EventID,
			"run_id":     payload.RunID,
			"filter":     key,
			"count":      len(values),
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"stream", p.stream,
		"entry_id", id,
		"filter", key,
		"count", len(values),
	)
	return nil
}
