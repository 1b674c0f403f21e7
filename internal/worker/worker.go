// Package worker runs storage maintenance for OTP challenges. Expiry is
// decided lazily at verify time; the sweeper only deletes rows that can
// never satisfy a verify again, plus challenges owned by transactions
// that reached a terminal state.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/store"
)

type Worker struct {
	Store    *store.Store
	Interval time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.SweepOnce(ctx); err != nil {
			log.Printf("sweep error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) SweepOnce(ctx context.Context) error {
	expired, err := w.Store.DeleteExpiredChallenges(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	purged, err := w.Store.PurgeTerminalChallenges(ctx)
	if err != nil {
		return err
	}
	if expired > 0 || purged > 0 {
		log.Printf("challenge sweep: %d expired, %d terminal", expired, purged)
	}
	return nil
}
