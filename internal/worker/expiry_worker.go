package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

const defaultBatchSize = 200

// ExpiryWorker periodically cancels pending bookings that outlived the hold
// TTL, releasing their inventory back to the pool.
type ExpiryWorker struct {
	bookings  service.BookingService
	holdTTL   time.Duration
	interval  time.Duration
	batchSize int
}

// NewExpiryWorker creates a new ExpiryWorker. The sweep interval defaults to
// a quarter of the hold TTL, floored at ten seconds.
func NewExpiryWorker(bookings service.BookingService, holdTTL time.Duration) *ExpiryWorker {
	interval := holdTTL / 4
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	return &ExpiryWorker{
		bookings:  bookings,
		holdTTL:   holdTTL,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

// Run sweeps until the context is cancelled
func (w *ExpiryWorker) Run(ctx context.Context) {
	log := logger.Get().With(zap.Duration("hold_ttl", w.holdTTL))
	log.Info("expiry worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep expires one batch of stale pending bookings
func (w *ExpiryWorker) sweep(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "worker.expiry.sweep")
	defer span.End()

	expired, err := w.bookings.ExpirePending(ctx, w.holdTTL, w.batchSize)
	if err != nil {
		logger.Get().WithContext(ctx).Error("expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		logger.Get().WithContext(ctx).Info("expired stale pending bookings",
			zap.Int("count", expired),
		)
	}
}
