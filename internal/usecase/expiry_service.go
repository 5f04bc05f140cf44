package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/platform/logging"
)

const (
	defaultSweepBatchSize = 200
	defaultSweepWorkers   = 4
)

type ExpiryConfig struct {
	BatchSize int
	Workers   int
}

// SweepResult summarizes one expiry pass.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ExpiryService transitions stale pending bookings to expired. Sweeps
// use the same compare-and-set transition as payment callbacks, so a
// sweep racing a callback or another instance's sweep is harmless: at
// most one of them applies.
type ExpiryService struct {
	bookingRepo booking.Repository
	notifier    Notifier
	logger      *logging.Logger
	cfg         ExpiryConfig
	now         func() time.Time
}

func NewExpiryService(
	bookingRepo booking.Repository,
	notifier Notifier,
	logger *logging.Logger,
	cfg ExpiryConfig,
) *ExpiryService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSweepBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultSweepWorkers
	}

	return &ExpiryService{
		bookingRepo: bookingRepo,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Sweep expires one batch of stale pending bookings. Availability and
// reservation already ignore stale pendings, so sweep latency never
// affects correctness; the sweep only settles the stored state and
// emits the expiry notifications.
func (s *ExpiryService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ExpiryService.Sweep")
	defer span.End()

	now := s.now().UTC()
	stale, err := s.bookingRepo.ListStalePending(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale pending bookings: %w", err)
	}
	if len(stale) == 0 {
		return SweepResult{}, nil
	}

	workerCount := s.cfg.Workers
	if workerCount > len(stale) {
		workerCount = len(stale)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SweepResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var expiredCount, skippedCount, failedCount atomic.Int64
	var workers sync.WaitGroup
	for _, b := range stale {
		b := b
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			applied, err := s.bookingRepo.Transition(ctx, b.ID, booking.StatusPending, booking.StatusExpired, now)
			if err != nil {
				failedCount.Add(1)
				s.logger.ErrorContext(ctx, "expire booking failed", "booking_id", b.ID, "error", err)
				return
			}
			if !applied {
				// Settled by a callback or another sweep in the meantime.
				skippedCount.Add(1)
				return
			}

			expiredCount.Add(1)
			b.Status = booking.StatusExpired
			b.UpdatedAt = now
			publishBookingEvent(ctx, s.notifier, s.logger, EventBookingExpired, b, now)
		}); err != nil {
			workers.Done()
			failedCount.Add(1)
			s.logger.ErrorContext(ctx, "submit expiry task failed", "booking_id", b.ID, "error", err)
		}
	}
	workers.Wait()

	result := SweepResult{
		Scanned: len(stale),
		Expired: int(expiredCount.Load()),
		Skipped: int(skippedCount.Load()),
		Failed:  int(failedCount.Load()),
	}
	if result.Expired > 0 || result.Failed > 0 {
		s.logger.InfoContext(ctx, "expiry sweep finished",
			"scanned", result.Scanned, "expired", result.Expired, "skipped", result.Skipped, "failed", result.Failed)
	}

	return result, nil
}
