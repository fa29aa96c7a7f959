// Package testhelpers starts stand-in provider servers and wires the service
// stack against them for handler and end-to-end tests.
package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/city-explorer/internal/client"
	"github.com/kjstillabower/city-explorer/internal/service"
	"github.com/kjstillabower/city-explorer/internal/store"
)

// Minimal well-formed provider payloads.
const (
	LocationPayload = `[{"place_id":"1","display_name":"Seattle, King County, Washington, USA","lat":"47.6038321","lon":"-122.3300624"}]`
	WeatherPayload  = `{"city_name":"Seattle","data":[{"datetime":"2024-03-01","weather":{"description":"Light rain"}},{"datetime":"2024-03-02","weather":{"description":"Overcast clouds"}}]}`
	ReviewsPayload  = `{"businesses":[{"name":"Pike Place Chowder","image_url":"https://img.example/chowder.jpg","price":"$$","rating":4.5,"url":"https://www.yelp.com/biz/pike-place-chowder"}]}`
	MoviesPayload   = `{"page":1,"results":[{"title":"Sleepless in Seattle","overview":"A widower...","vote_average":6.8,"vote_count":2000,"poster_path":"/abc.jpg","popularity":15.2,"release_date":"1993-06-25"}]}`
	TrailsPayload   = `{"trails":[{"name":"Rattlesnake Ledge","location":"North Bend, Washington","length":4,"stars":4.5,"starVotes":120,"summary":"Lake views","url":"https://www.hikingproject.com/trail/1","conditionStatus":"All Clear","conditionDetails":"Dry","conditionDate":"2023-04-01T15:30:00Z"}]}`
)

// Stub is a provider stand-in returning a configurable status and body.
type Stub struct {
	Server *httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	delay    time.Duration
	requests []*http.Request
}

func newStub(t *testing.T, body string) *Stub {
	t.Helper()
	s := &Stub{status: http.StatusOK, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *Stub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	status, body, delay := s.status, s.body, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Respond changes what the stub returns from now on.
func (s *Stub) Respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.body = status, body
}

// Delay makes every following response wait d first.
func (s *Stub) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Calls returns how many requests the stub has received.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastQuery returns the query of the most recent request, or nil.
func (s *Stub) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1].URL.Query()
}

// LastHeader returns a header of the most recent request.
func (s *Stub) LastHeader(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ""
	}
	return s.requests[len(s.requests)-1].Header.Get(name)
}

// Providers holds one stub per resource type.
type Providers struct {
	Location *Stub
	Weather  *Stub
	Reviews  *Stub
	Movies   *Stub
	Trails   *Stub
}

// NewProviders starts the five stubs serving the sample payloads.
func NewProviders(t *testing.T) *Providers {
	t.Helper()
	return &Providers{
		Location: newStub(t, LocationPayload),
		Weather:  newStub(t, WeatherPayload),
		Reviews:  newStub(t, ReviewsPayload),
		Movies:   newStub(t, MoviesPayload),
		Trails:   newStub(t, TrailsPayload),
	}
}

// Stack is the service layer wired against stub providers.
type Stack struct {
	Providers *Providers
	Store     *store.MemoryStore
	Resolver  *service.LocationResolver
	Feeds     *service.FeedService
}

// NewStack wires clients, an in-memory store, the resolver and the feeds
// against fresh stubs. timeout bounds each provider call.
func NewStack(t *testing.T, timeout time.Duration) *Stack {
	t.Helper()
	p := NewProviders(t)
	newClient := func(e client.Endpoint) *client.Client {
		c, err := client.New(e, timeout)
		if err != nil {
			t.Fatalf("client.New(%s) error = %v", e.Resource, err)
		}
		return c
	}

	st := store.NewMemoryStore()
	return &Stack{
		Providers: p,
		Store:     st,
		Resolver: service.NewLocationResolver(
			newClient(client.LocationEndpoint(p.Location.Server.URL, "test-geocode-key")),
			st,
			timeout,
			timeout,
		),
		Feeds: service.NewFeedService(
			newClient(client.WeatherEndpoint(p.Weather.Server.URL, "test-weather-key")),
			newClient(client.ReviewsEndpoint(p.Reviews.Server.URL, "test-yelp-key")),
			newClient(client.MoviesEndpoint(p.Movies.Server.URL, "test-movie-key")),
			newClient(client.TrailsEndpoint(p.Trails.Server.URL, "test-trail-key")),
		),
	}
}
