package weatherapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestClientGetSendsKeyAndParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathCurrent {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "secret" || q.Get("q") != "Paris" || q.Get("aqi") != "yes" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(` {"current":{"temp_c":12}} `))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL))
	body, err := c.Get(context.Background(), PathCurrent, url.Values{"q": {"Paris"}, "aqi": {"yes"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"current":{"temp_c":12}}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestClientServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL))
	_, err := c.Get(context.Background(), PathForecast, url.Values{"q": {"Nowhere"}})

	var apiErr *weather.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Kind != weather.KindService || apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != 1006 {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Message != "No matching location found." {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestClientServiceErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL))
	_, err := c.Get(context.Background(), PathCurrent, nil)
	if !weather.IsKind(err, weather.KindService) {
		t.Fatalf("expected service error, got %v", err)
	}
	if err.(*weather.APIError).Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(http.DefaultClient, "secret", WithBaseURL(base))
	_, err := c.Get(context.Background(), PathCurrent, nil)
	if !weather.IsKind(err, weather.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClientEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL))
	_, err := c.Get(context.Background(), PathSearch, url.Values{"q": {"Lon"}})
	if !weather.IsKind(err, weather.KindEmpty) {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestClientMissingKey(t *testing.T) {
	c := NewClient(http.DefaultClient, "")
	_, err := c.Get(context.Background(), PathCurrent, nil)
	if !weather.IsKind(err, weather.KindRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
}

func TestCircuitOpensOnServerErrorsOnly(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL), WithBreaker(BreakerConfig{ConsecutiveFailures: 2}))

	// Client errors never trip the breaker.
	for i := 0; i < 3; i++ {
		_, _ = c.Get(context.Background(), PathCurrent, nil)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}

	status.Store(http.StatusInternalServerError)
	for i := 0; i < 2; i++ {
		_, _ = c.Get(context.Background(), PathCurrent, nil)
	}
	_, err := c.Get(context.Background(), PathCurrent, nil)
	if !weather.IsKind(err, weather.KindTransport) {
		t.Fatalf("expected open circuit to surface as transport error, got %v", err)
	}
	if calls.Load() != 5 {
		t.Fatalf("open circuit should not reach the server, got %d calls", calls.Load())
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	c := NewClient(srv.Client(), "secret", WithBaseURL(srv.URL))
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("reachable host should ping: %v", err)
	}
	srv.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("closed server should not ping")
	}
}
