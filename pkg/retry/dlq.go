package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeadLetter is a payload parked after its retries were exhausted
type DeadLetter struct {
	ID          string          `json:"id"`
	Stream      string          `json:"stream"`
	Payload     json.RawMessage `json:"payload"`
	Error       string          `json:"error"`
	Attempts    int             `json:"attempts"`
	FirstFailed time.Time       `json:"first_failed_at"`
	ParkedAt    time.Time       `json:"parked_at"`
	Source      string          `json:"source"`
}

// DeadLetterSink stores dead letters for later inspection or replay
type DeadLetterSink interface {
	Park(ctx context.Context, letter *DeadLetter) error
}

// StreamDeadLetterSink appends dead letters to a Redis stream named after
// the original stream with a ".dlq" suffix.
type StreamDeadLetterSink struct {
	client *redis.Client
	source string
	maxLen int64
}

// NewStreamDeadLetterSink creates a sink writing through the given client.
// source names the parking service in the letter.
func NewStreamDeadLetterSink(client *redis.Client, source string) *StreamDeadLetterSink {
	return &StreamDeadLetterSink{
		client: client,
		source: source,
		maxLen: 10000,
	}
}

// Park appends the letter to the original stream's dead-letter stream
func (s *StreamDeadLetterSink) Park(ctx context.Context, letter *DeadLetter) error {
	if letter == nil {
		return fmt.Errorf("dead letter cannot be nil")
	}
	letter.ParkedAt = time.Now().UTC()
	letter.Source = s.source

	body, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: letter.Stream + ".dlq",
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":       letter.ID,
			"error":    letter.Error,
			"attempts": letter.Attempts,
			"letter":   string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to park dead letter: %w", err)
	}
	return nil
}

// NoopDeadLetterSink discards dead letters, for tests and deployments
// without a parking stream.
type NoopDeadLetterSink struct{}

// Park discards the letter
func (NoopDeadLetterSink) Park(ctx context.Context, letter *DeadLetter) error {
	return nil
}
