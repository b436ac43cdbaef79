package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpirySweeper runs the periodic ExpireUnpaid sweep so that no Pending
// booking survives past its hold timeout without resolution.
type ExpirySweeper struct {
	Bookings *BookingService
	Interval time.Duration
	Log      *logrus.Logger
}

func NewExpirySweeper(bookings *BookingService, interval time.Duration, log *logrus.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{Bookings: bookings, Interval: interval, Log: log}
}

// Run blocks until ctx is cancelled. Each tick is independent and idempotent;
// a failed sweep is logged and retried on the next tick.
func (w *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Bookings.ExpireUnpaid(ctx); err != nil {
				w.Log.WithError(err).Warn("expiry sweep failed")
			}
		}
	}
}
