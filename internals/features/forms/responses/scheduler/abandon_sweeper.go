package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"triddle_backend/internals/configs"
	"triddle_backend/internals/features/forms/responses/model"
)

const sweepTimeout = 2 * time.Minute

// IdleAbandoner: ResponseService memenuhi interface ini.
type IdleAbandoner interface {
	ListIdle(ctx context.Context, cutoff time.Time, limit int) ([]model.FormResponseModel, error)
	AbandonIdle(ctx context.Context, responseID uuid.UUID, cutoff time.Time) (bool, error)
}

// SweepOnce menandai abandoned semua record incomplete yang idle sejak sebelum now-idleAfter.
// Diproses per batch; berhenti kalau satu batch tidak menghasilkan apa-apa.
func SweepOnce(ctx context.Context, svc IdleAbandoner, idleAfter time.Duration, batch int, now time.Time) (int, error) {
	if batch <= 0 {
		batch = 500
	}
	cutoff := now.Add(-idleAfter)
	total := 0
	var errs []error

	for {
		rows, err := svc.ListIdle(ctx, cutoff, batch)
		if err != nil {
			return total, err
		}
		done := 0
		for i := range rows {
			ok, err := svc.AbandonIdle(ctx, rows[i].FormResponseID, cutoff)
			if err != nil {
				log.Printf("[SWEEP] response=%s: %v", rows[i].FormResponseID, err)
				errs = append(errs, err)
				continue
			}
			if ok {
				done++
			}
		}
		total += done
		if len(rows) < batch || done == 0 || ctx.Err() != nil {
			break
		}
	}
	return total, errors.Join(errs...)
}

// StartAbandonSweeper jalan sesuai RESPONSE_SWEEP_CRON. Caller wajib Stop() saat shutdown.
func StartAbandonSweeper(svc IdleAbandoner, cfg configs.ResponseSettings) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cfg.SweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		n, err := SweepOnce(ctx, svc, cfg.AbandonAfter, cfg.SweepBatch, time.Now().UTC())
		if err != nil {
			log.Printf("[SWEEP ERROR] %v", err)
		}
		if n > 0 {
			log.Printf("[SWEEP] %d response ditandai abandoned (idle > %s)", n, cfg.AbandonAfter)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("[SWEEP] abandon sweeper aktif (%s, idle > %s)", cfg.SweepCron, cfg.AbandonAfter)
	return c, nil
}
