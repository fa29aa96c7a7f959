package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  bool
	}{
		{
			name:     "valid query auth",
			endpoint: LocationEndpoint("https://api.test.com/search", "k"),
		},
		{
			name:     "valid bearer auth",
			endpoint: ReviewsEndpoint("https://api.test.com/businesses", "k"),
		},
		{
			name:     "empty key",
			endpoint: WeatherEndpoint("https://api.test.com/forecast", ""),
			wantErr:  true,
		},
		{
			name:     "query auth without param",
			endpoint: Endpoint{Resource: ResourceMovies, BaseURL: "https://api.test.com", Auth: Auth{Style: AuthQueryParam, Key: "k"}},
			wantErr:  true,
		},
		{
			name:     "relative base URL",
			endpoint: TrailsEndpoint("/get-trails", "k"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.endpoint, time.Second)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New() expected error, got nil")
				}
				if c != nil {
					t.Errorf("New() expected nil client on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if c.Resource() != tt.endpoint.Resource {
				t.Errorf("Resource() = %q, want %q", c.Resource(), tt.endpoint.Resource)
			}
		})
	}
}

func TestEndpoints_Defaults(t *testing.T) {
	tests := []struct {
		endpoint Endpoint
		wantURL  string
	}{
		{LocationEndpoint("", "k"), DefaultLocationURL},
		{WeatherEndpoint("", "k"), DefaultWeatherURL},
		{ReviewsEndpoint("", "k"), DefaultReviewsURL},
		{MoviesEndpoint("", "k"), DefaultMoviesURL},
		{TrailsEndpoint("", "k"), DefaultTrailsURL},
	}
	for _, tt := range tests {
		t.Run(string(tt.endpoint.Resource), func(t *testing.T) {
			if tt.endpoint.BaseURL != tt.wantURL {
				t.Errorf("BaseURL = %q, want %q", tt.endpoint.BaseURL, tt.wantURL)
			}
		})
	}
}

// TestClient_Fetch_QueryShape verifies that each provider receives its fixed
// parameters, the caller's parameters and its credential in the right place.
func TestClient_Fetch_QueryShape(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   func(baseURL string) Endpoint
		params     url.Values
		wantQuery  map[string]string
		wantBearer string
	}{
		{
			name:     "location",
			endpoint: func(u string) Endpoint { return LocationEndpoint(u, "geo-key") },
			params:   url.Values{"q": {"seattle"}},
			wantQuery: map[string]string{
				"key": "geo-key", "q": "seattle", "format": "json", "limit": "1",
			},
		},
		{
			name:     "weather",
			endpoint: func(u string) Endpoint { return WeatherEndpoint(u, "wx-key") },
			params:   url.Values{"lat": {"47.6"}, "lon": {"-122.3"}},
			wantQuery: map[string]string{
				"key": "wx-key", "lat": "47.6", "lon": "-122.3", "lang": "en", "days": "5",
			},
		},
		{
			name:       "reviews",
			endpoint:   func(u string) Endpoint { return ReviewsEndpoint(u, "yelp-key") },
			params:     url.Values{"location": {"seattle"}},
			wantQuery:  map[string]string{"location": "seattle"},
			wantBearer: "Bearer yelp-key",
		},
		{
			name:     "movies",
			endpoint: func(u string) Endpoint { return MoviesEndpoint(u, "tmdb-key") },
			params:   url.Values{"query": {"seattle"}},
			wantQuery: map[string]string{
				"api_key": "tmdb-key", "query": "seattle", "language": "en-US", "page": "1",
			},
		},
		{
			name:     "trails",
			endpoint: func(u string) Endpoint { return TrailsEndpoint(u, "trail-key") },
			params:   url.Values{"lat": {"47.6"}, "lon": {"-122.3"}},
			wantQuery: map[string]string{
				"key": "trail-key", "lat": "47.6", "lon": "-122.3", "maxDistance": "200",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery url.Values
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query()
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[]`))
			}))
			defer server.Close()

			c, err := New(tt.endpoint(server.URL), 2*time.Second)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			body, err := c.Fetch(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if string(body) != `[]` {
				t.Errorf("Fetch() body = %q, want []", body)
			}
			for k, want := range tt.wantQuery {
				if got := gotQuery.Get(k); got != want {
					t.Errorf("query %s = %q, want %q", k, got, want)
				}
			}
			if len(gotQuery) != len(tt.wantQuery) {
				t.Errorf("query has %d params, want %d: %v", len(gotQuery), len(tt.wantQuery), gotQuery)
			}
			if gotAuth != tt.wantBearer {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantBearer)
			}
		})
	}
}

// TestClient_Fetch_ErrorHandling verifies that non-2xx statuses become
// StatusError values that unwrap to ErrUpstreamRejected.
func TestClient_Fetch_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
		{"service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			c, _ := New(MoviesEndpoint(server.URL, "k"), 2*time.Second)
			_, err := c.Fetch(context.Background(), url.Values{"query": {"x"}})
			if err == nil {
				t.Fatalf("Fetch() expected error, got nil")
			}
			if !errors.Is(err, models.ErrUpstreamRejected) {
				t.Errorf("Fetch() error = %v, want ErrUpstreamRejected", err)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("Fetch() error is not *StatusError: %v", err)
			}
			if statusErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.statusCode)
			}
			if statusErr.Resource != ResourceMovies {
				t.Errorf("Resource = %q, want movies", statusErr.Resource)
			}
		})
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, _ := New(WeatherEndpoint(server.URL, "k"), 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), nil)
	if err == nil {
		t.Fatal("Fetch() expected timeout error, got nil")
	}
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUpstreamUnavailable", err)
	}
	if CategorizeError(err) != ErrorCategoryTimeout {
		t.Errorf("CategorizeError() = %v, want timeout", CategorizeError(err))
	}
}

func TestClient_Fetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c, _ := New(TrailsEndpoint(server.URL, "k"), 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, nil)
	if err == nil {
		t.Fatal("Fetch() expected error for cancelled context")
	}
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c, _ := New(LocationEndpoint(baseURL, "k"), time.Second)
	_, err := c.Fetch(context.Background(), url.Values{"q": {"x"}})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUpstreamUnavailable", err)
	}
}

// TestClient_Fetch_CorrelationID verifies that the request correlation ID is
// forwarded to the provider.
func TestClient_Fetch_CorrelationID(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Correlation-ID")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, _ := New(ReviewsEndpoint(server.URL, "k"), time.Second)
	ctx := observability.WithCorrelationID(context.Background(), "corr-123")
	if _, err := c.Fetch(ctx, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want corr-123", got)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{204, "success"},
		{301, "error"},
		{404, "client_error"},
		{429, "rate_limited"},
		{503, "server_error"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.code); got != tt.want {
			t.Errorf("statusLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
