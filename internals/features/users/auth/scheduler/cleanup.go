package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type BlacklistCleaner interface {
	CleanupExpiredBlacklist(ctx context.Context, before time.Time) (int64, error)
}

const cleanupTimeout = time.Minute

// CleanupOnce hapus token yang expired lebih dari ttlDays hari.
func CleanupOnce(ctx context.Context, repo BlacklistCleaner, ttlDays int, now time.Time) (int64, error) {
	deleteBefore := now.Add(-time.Duration(ttlDays) * 24 * time.Hour)
	n, err := repo.CleanupExpiredBlacklist(ctx, deleteBefore)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[CLEANUP] %d token kadaluarsa dihapus", n)
	}
	return n, nil
}

// StartBlacklistCleanupScheduler jalan tiap hari 03:00 (atau TOKEN_BLACKLIST_CLEANUP_CRON).
// Caller wajib memanggil Stop() saat shutdown.
func StartBlacklistCleanupScheduler(repo BlacklistCleaner, spec string, ttlDays int) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		log.Println("[CLEANUP] Menjalankan pembersihan token_blacklist...")
		if _, err := CleanupOnce(ctx, repo, ttlDays, time.Now()); err != nil {
			log.Printf("[CLEANUP ERROR] Gagal hapus token: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
