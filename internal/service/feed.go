package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer/internal/client"
	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/normalize"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

// FeedService serves the resource types that are fetched fresh on every
// request: one provider call, one normalization, no persistence.
type FeedService struct {
	weather client.Fetcher
	reviews client.Fetcher
	movies  client.Fetcher
	trails  client.Fetcher
	now     func() time.Time
}

func NewFeedService(weather, reviews, movies, trails client.Fetcher) *FeedService {
	return &FeedService{
		weather: weather,
		reviews: reviews,
		movies:  movies,
		trails:  trails,
		now:     time.Now,
	}
}

// Weather returns the daily forecast near p.
func (s *FeedService) Weather(ctx context.Context, p orb.Point) ([]models.WeatherRecord, error) {
	body, err := s.fetch(ctx, s.weather, "weather", coordParams(p))
	if err != nil {
		return nil, err
	}
	recs, err := normalize.Weather(body)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	return recs, nil
}

// Reviews returns businesses for a place name.
func (s *FeedService) Reviews(ctx context.Context, searchQuery string) ([]models.ReviewRecord, error) {
	body, err := s.fetch(ctx, s.reviews, "reviews", url.Values{"location": {searchQuery}})
	if err != nil {
		return nil, err
	}
	recs, err := normalize.Reviews(body, s.now())
	if err != nil {
		return nil, fmt.Errorf("reviews: %w", err)
	}
	return recs, nil
}

// Movies returns films whose metadata matches a place name.
func (s *FeedService) Movies(ctx context.Context, searchQuery string) ([]models.MovieRecord, error) {
	body, err := s.fetch(ctx, s.movies, "movies", url.Values{"query": {searchQuery}})
	if err != nil {
		return nil, err
	}
	recs, err := normalize.Movies(body, s.now())
	if err != nil {
		return nil, fmt.Errorf("movies: %w", err)
	}
	return recs, nil
}

// Trails returns hiking trails near p.
func (s *FeedService) Trails(ctx context.Context, p orb.Point) ([]models.TrailRecord, error) {
	body, err := s.fetch(ctx, s.trails, "trails", coordParams(p))
	if err != nil {
		return nil, err
	}
	recs, err := normalize.Trails(body, s.now())
	if err != nil {
		return nil, fmt.Errorf("trails: %w", err)
	}
	return recs, nil
}

func (s *FeedService) fetch(ctx context.Context, f client.Fetcher, resource string, params url.Values) ([]byte, error) {
	start := time.Now()
	body, err := f.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	observability.LoggerFromContext(ctx).Debug("feed fetched",
		zap.String("resource", resource),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// coordParams renders p as the lat/lon query pair. orb.Point is [lon, lat].
func coordParams(p orb.Point) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(p.Lat(), 'f', -1, 64)},
		"lon": {strconv.FormatFloat(p.Lon(), 'f', -1, 64)},
	}
}
