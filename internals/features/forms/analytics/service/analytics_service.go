package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/helpers/apperror"
)

const (
	dayLayout     = "2006-01-02"
	maxWindowDays = 366
	unknownBucket = "unknown"

	// batas satu hitungan bersama; tidak ikut dibatalkan saat caller pertama pergi
	computeTimeout = 15 * time.Second
)

type DeviceShare struct {
	Device     string  `json:"device"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

type Summary struct {
	FormID                uuid.UUID                      `json:"form_id"`
	TotalResponses        int64                          `json:"total_responses"`
	StatusCounts          map[model.ResponseStatus]int64 `json:"status_counts"`
	CompletionRate        float64                        `json:"completion_rate"`
	AverageTimeToComplete *float64                       `json:"average_time_to_complete"`
	Devices               []DeviceShare                  `json:"devices"`
	Timeline              []DayCount                     `json:"timeline"`
	Geo                   []CountryCount                 `json:"geo"`
}

type Options struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

// AnalyticsService menghitung statistik response per form.
// Hasil di-memo per (form, operasi, window) dan dibuang lewat ResponseChanged.
type AnalyticsService struct {
	store Store
	cache *resultCache
	group singleflight.Group
	now   func() time.Time
}

func NewAnalyticsService(store Store, opt Options) *AnalyticsService {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &AnalyticsService{
		store: store,
		cache: newResultCache(opt.CacheTTL, 2*computeTimeout),
		now:   opt.Now,
	}
}

// ResponseChanged dipanggil ResponseService setiap ada write.
func (s *AnalyticsService) ResponseChanged(formID uuid.UUID) {
	s.cache.invalidate(formID, s.now())
}

// memo: cache hit -> langsung; miss -> singleflight per (key, generasi).
// Hitungan jalan dengan context sendiri; tiap caller cuma menunggu sampai ctx-nya selesai.
func memo[T any](ctx context.Context, s *AnalyticsService, formID uuid.UUID, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, gen, ok := s.cache.get(formID, key, s.now())
	if ok {
		return v.(T), nil
	}

	flight := fmt.Sprintf("%s|%s|%d", formID, key, gen)
	ch := s.group.DoChan(flight, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		out, err := fn(cctx)
		if err != nil {
			return nil, err
		}
		s.cache.put(formID, key, gen, out, s.now())
		return out, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

/* ==========================
   Operations
========================== */

func (s *AnalyticsService) statusCounts(ctx context.Context, formID uuid.UUID) (map[model.ResponseStatus]int64, error) {
	return memo(ctx, s, formID, "status", func(ctx context.Context) (map[model.ResponseStatus]int64, error) {
		return s.store.CountByStatus(ctx, formID)
	})
}

// CompletionRate = completed / total, 0 kalau belum ada response.
func (s *AnalyticsService) CompletionRate(ctx context.Context, formID uuid.UUID) (float64, error) {
	counts, err := s.statusCounts(ctx, formID)
	if err != nil {
		return 0, err
	}
	return completionRate(counts), nil
}

func completionRate(counts map[model.ResponseStatus]int64) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}
	return float64(counts[model.ResponseStatusCompleted]) / float64(total)
}

// AverageTimeToComplete dalam detik; nil kalau belum ada yang completed.
func (s *AnalyticsService) AverageTimeToComplete(ctx context.Context, formID uuid.UUID) (*float64, error) {
	return memo(ctx, s, formID, "avg_time", func(ctx context.Context) (*float64, error) {
		return s.store.AverageCompletedTime(ctx, formID)
	})
}

func (s *AnalyticsService) DeviceBreakdown(ctx context.Context, formID uuid.UUID) ([]DeviceShare, error) {
	return memo(ctx, s, formID, "devices", func(ctx context.Context) ([]DeviceShare, error) {
		counts, err := s.store.CountByDevice(ctx, formID)
		if err != nil {
			return nil, err
		}
		total := sum(counts)
		out := make([]DeviceShare, 0, len(counts))
		for device, n := range counts {
			if device == "" {
				device = unknownBucket
			}
			out = append(out, DeviceShare{Device: device, Count: n, Percentage: percentage(n, total)})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Device < out[j].Device
		})
		return out, nil
	})
}

// Timeline: jumlah response per hari UTC, from..to inklusif, hari kosong tetap muncul (0).
func (s *AnalyticsService) Timeline(ctx context.Context, formID uuid.UUID, from, to time.Time) ([]DayCount, error) {
	from, to, err := NormalizeWindow(from, to)
	if err != nil {
		return nil, err
	}
	key := "timeline:" + from.Format(dayLayout) + ":" + to.Format(dayLayout)
	return memo(ctx, s, formID, key, func(ctx context.Context) ([]DayCount, error) {
		counts, err := s.store.CountByDay(ctx, formID, from, to)
		if err != nil {
			return nil, err
		}
		out := make([]DayCount, 0, int(to.Sub(from).Hours()/24)+1)
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			day := d.Format(dayLayout)
			out = append(out, DayCount{Date: day, Count: counts[day]})
		}
		return out, nil
	})
}

// GeoDistribution: per negara, terbanyak dulu (seri -> urut nama).
func (s *AnalyticsService) GeoDistribution(ctx context.Context, formID uuid.UUID) ([]CountryCount, error) {
	return memo(ctx, s, formID, "geo", func(ctx context.Context) ([]CountryCount, error) {
		counts, err := s.store.CountByCountry(ctx, formID)
		if err != nil {
			return nil, err
		}
		merged := make(map[string]int64, len(counts))
		for country, n := range counts {
			if country == "" {
				country = unknownBucket
			}
			merged[country] += n
		}
		out := make([]CountryCount, 0, len(merged))
		for country, n := range merged {
			out = append(out, CountryCount{Country: country, Count: n})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Country < out[j].Country
		})
		return out, nil
	})
}

// Summary menjalankan semua agregasi paralel.
func (s *AnalyticsService) Summary(ctx context.Context, formID uuid.UUID, from, to time.Time) (*Summary, error) {
	if _, _, err := NormalizeWindow(from, to); err != nil {
		return nil, err
	}
	out := &Summary{FormID: formID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.statusCounts(gctx, formID)
		if err != nil {
			return err
		}
		out.StatusCounts = withAllStatuses(counts)
		out.TotalResponses = sum(counts)
		out.CompletionRate = completionRate(counts)
		return nil
	})
	g.Go(func() (err error) {
		out.AverageTimeToComplete, err = s.AverageTimeToComplete(gctx, formID)
		return err
	})
	g.Go(func() (err error) {
		out.Devices, err = s.DeviceBreakdown(gctx, formID)
		return err
	})
	g.Go(func() (err error) {
		out.Timeline, err = s.Timeline(gctx, formID, from, to)
		return err
	})
	g.Go(func() (err error) {
		out.Geo, err = s.GeoDistribution(gctx, formID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[Analytics] summary form=%s: %v", formID, err)
		return nil, err
	}
	return out, nil
}

/* ==========================
   Helpers
========================== */

// NormalizeWindow memotong from/to ke awal hari UTC lalu cek urutan & panjang window.
func NormalizeWindow(from, to time.Time) (time.Time, time.Time, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if from.After(to) {
		return from, to, apperror.Invalid(nil, "window", "from must not be after to")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxWindowDays {
		return from, to, apperror.Invalid(nil, "window", fmt.Sprintf("window is %d days, at most %d allowed", days, maxWindowDays))
	}
	return from, to, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func withAllStatuses(counts map[model.ResponseStatus]int64) map[model.ResponseStatus]int64 {
	out := map[model.ResponseStatus]int64{
		model.ResponseStatusIncomplete: 0,
		model.ResponseStatusCompleted:  0,
		model.ResponseStatusAbandoned:  0,
	}
	for k, v := range counts {
		out[k] += v
	}
	return out
}

func sum[K comparable](m map[K]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

// percentage dibulatkan 2 desimal.
func percentage(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*10000/float64(total)) / 100
}
