package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCleaner struct {
	before time.Time
}

func (r *recordingCleaner) CleanupExpiredBlacklist(_ context.Context, before time.Time) (int64, error) {
	r.before = before
	return 3, nil
}

func TestCleanupOnceUsesRetentionWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)
	rec := &recordingCleaner{}

	n, err := CleanupOnce(context.Background(), rec, 7, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.True(t, now.AddDate(0, 0, -7).Equal(rec.before))
}

func TestStartBlacklistCleanupSchedulerRejectsBadSpec(t *testing.T) {
	_, err := StartBlacklistCleanupScheduler(&recordingCleaner{}, "not a cron", 7)
	assert.Error(t, err)

	c, err := StartBlacklistCleanupScheduler(&recordingCleaner{}, "0 3 * * *", 7)
	require.NoError(t, err)
	<-c.Stop().Done()
}
