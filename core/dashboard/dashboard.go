package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ArtistStudio/logger"
	"ArtistStudio/model"

	"golang.org/x/sync/errgroup"
)

const topTracksLimit = 10

// Periods accepted by Dashboard.
var Periods = []string{"7d", "28d", "90d", "365d"}

var (
	ErrInvalidPeriod = errors.New("dashboard: unsupported period")
	ErrNoArtist      = errors.New("dashboard: no artist selected")
)

// Source is the catalogue API subset the dashboard reads from.
type Source interface {
	GetMetrics(ctx context.Context, artistID, metric, period string) (*model.MetricSeries, error)
	GetTopTracks(ctx context.Context, artistID, period string, limit int) ([]model.TopTrack, error)
}

// Cache stores assembled dashboards.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// Recorder counts cache hits and misses.
type Recorder interface {
	RecordDashboardCache(result string)
}

// Service assembles the metrics dashboard of an artist.
type Service struct {
	source   Source
	cache    Cache
	ttl      time.Duration
	recorder Recorder
	now      func() time.Time
}

// NewService creates a dashboard service. cache and recorder may be nil.
func NewService(source Source, cache Cache, ttl time.Duration, recorder Recorder) *Service {
	return &Service{source: source, cache: cache, ttl: ttl, recorder: recorder, now: time.Now}
}

// ValidPeriod reports whether p is one of Periods.
func ValidPeriod(p string) bool {
	for _, known := range Periods {
		if p == known {
			return true
		}
	}
	return false
}

// Dashboard returns the cached dashboard or fetches every widget concurrently.
func (s *Service) Dashboard(ctx context.Context, artistID, period string) (*model.Dashboard, error) {
	if artistID == "" {
		return nil, ErrNoArtist
	}
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	key := artistID + ":" + period
	if s.cache != nil {
		var cached model.Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("[Dashboard] cache read failed", logger.String("key", key), logger.ErrorField(err))
		}
		if hit {
			s.count("hit")
			return &cached, nil
		}
		s.count("miss")
	}

	d := &model.Dashboard{ArtistID: artistID, Period: period}
	g, gctx := errgroup.WithContext(ctx)
	series := []struct {
		metric string
		dst    *model.MetricSeries
	}{
		{"streams", &d.Streams},
		{"listeners", &d.Listeners},
		{"revenue", &d.Revenue},
	}
	for _, m := range series {
		m := m
		g.Go(func() error {
			got, err := s.source.GetMetrics(gctx, artistID, m.metric, period)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", m.metric, err)
			}
			*m.dst = *got
			return nil
		})
	}
	g.Go(func() error {
		top, err := s.source.GetTopTracks(gctx, artistID, period, topTracksLimit)
		if err != nil {
			return fmt.Errorf("fetch top tracks: %w", err)
		}
		d.TopTracks = top
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.TopTracks == nil {
		d.TopTracks = []model.TopTrack{}
	}
	d.GeneratedAt = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, d, s.ttl); err != nil {
			logger.Warn("[Dashboard] cache write failed", logger.String("key", key), logger.ErrorField(err))
		}
	}
	return d, nil
}

func (s *Service) count(result string) {
	if s.recorder != nil {
		s.recorder.RecordDashboardCache(result)
	}
}
