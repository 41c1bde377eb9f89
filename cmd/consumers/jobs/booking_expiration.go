package jobs

import (
	"context"
	"log/slog"
	"time"

	"motorent/internal/config"
	"motorent/internal/service"
)

// BookingExpirationJob periodically cancels pending bookings whose payment
// window has elapsed. It is opt-in: most deployments leave unpaid bookings
// pending for operators to reconcile.
type BookingExpirationJob struct {
	bookings *service.BookingService
	cfg      config.SweepConfig
	ticker   *time.Ticker
	done     chan bool
}

func NewBookingExpirationJob(bookings *service.BookingService, cfg config.SweepConfig) *BookingExpirationJob {
	return &BookingExpirationJob{
		bookings: bookings,
		cfg:      cfg,
		done:     make(chan bool),
	}
}

// Start begins the background sweep loop.
func (j *BookingExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting booking expiration job",
		"check_interval", j.cfg.Interval.String(),
		"timeout", j.cfg.TTL.String())

	j.ticker = time.NewTicker(j.cfg.Interval)

	// Run initial check immediately
	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *BookingExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *BookingExpirationJob) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.cfg.TTL)

	swept, err := j.bookings.ExpireStale(ctx, cutoff)
	if err != nil {
		slog.Error("Booking expiration sweep failed", "error", err)
		return
	}

	if swept > 0 {
		slog.Info("Expired stale bookings", "count", swept, "cutoff", cutoff)
	} else {
		slog.Debug("No stale bookings found")
	}
}
