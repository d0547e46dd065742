package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCancelled   = errors.New("context cancelled during retry")
)

// Config tunes the exponential backoff
type Config struct {
	// MaxRetries is the number of attempts after the first (0 = no retries)
	MaxRetries int
	// InitialInterval is the first backoff wait
	InitialInterval time.Duration
	// MaxInterval caps the backoff wait
	MaxInterval time.Duration
	// Multiplier grows the interval per attempt
	Multiplier float64
	// JitterFactor randomizes the interval by ±factor to avoid thundering
	// herds; 0 disables jitter
	JitterFactor float64
}

// DefaultConfig backs off 1s, 2s, 4s, 8s, 16s capped at 30s
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the retried unit of work
type Operation func(ctx context.Context) error

// PermanentError stops retrying immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports how a retried operation ended
type Result struct {
	// Err is nil on success, ErrMaxRetriesExceeded or ErrContextCancelled
	// otherwise, or the unwrapped error for a permanent failure
	Err error
	// Attempts counts every attempt including the first
	Attempts int
	// LastError is the error of the final attempt
	LastError error
}

// Retrier runs operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a Retrier, filling zero config values with defaults
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	if config.JitterFactor > 1 {
		config.JitterFactor = 1
	}
	return &Retrier{config: config}
}

// Do runs the operation until it succeeds, returns a permanent error, the
// retry budget is spent, or the context ends.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	result := &Result{}

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCancelled
			return result
		}

		err := op(ctx)
		if err == nil {
			return result
		}
		result.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			result.Err = perm.Err
			result.LastError = perm.Err
			return result
		}

		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCancelled
			return result
		case <-time.After(r.interval(attempt)):
		}
	}

	result.Err = ErrMaxRetriesExceeded
	return result
}

// interval computes the backoff wait for an attempt
func (r *Retrier) interval(attempt int) time.Duration {
	wait := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.JitterFactor > 0 {
		jitter := wait * r.config.JitterFactor
		wait += (rand.Float64()*2 - 1) * jitter
	}
	if wait > float64(r.config.MaxInterval) {
		wait = float64(r.config.MaxInterval)
	}
	if wait < 0 {
		wait = float64(r.config.InitialInterval)
	}
	return time.Duration(wait)
}

// Do is a convenience wrapper around New(config).Do
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}
