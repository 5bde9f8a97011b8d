package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skywash/skywash-api/internal/circuitbreaker"
)

// feedServer returns a test server that responds to every request with
// the given status code and body.
func feedServer(t *testing.T, statusCode int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
}

func TestWAQIClient_FetchPM25_Success(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{"status":"ok","data":{"iaqi":{"pm25":{"v":35.4}}}}`)
	defer srv.Close()

	c := NewWAQIClient("token", srv.URL, 2*time.Second)
	got, err := c.FetchPM25(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("FetchPM25() error = %v, want nil", err)
	}
	if got != 35.4 {
		t.Errorf("FetchPM25() = %v, want 35.4", got)
	}
}

// TestWAQIClient_FetchPM25_StringValue verifies that the feed's occasional
// string-encoded readings are accepted.
func TestWAQIClient_FetchPM25_StringValue(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{"status":"ok","data":{"iaqi":{"pm25":{"v":"42.7"}}}}`)
	defer srv.Close()

	c := NewWAQIClient("token", srv.URL, 2*time.Second)
	got, err := c.FetchPM25(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("FetchPM25() error = %v, want nil", err)
	}
	if got != 42.7 {
		t.Errorf("FetchPM25() = %v, want 42.7", got)
	}
}

func TestWAQIClient_FetchPM25_RequestPath(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"iaqi":{"pm25":{"v":10}}}}`))
	}))
	defer srv.Close()

	c := NewWAQIClient("secret", srv.URL, 2*time.Second)
	if _, err := c.FetchPM25(context.Background(), "mexico-city"); err != nil {
		t.Fatalf("FetchPM25() error = %v", err)
	}
	if gotPath != "/mexico-city/" {
		t.Errorf("request path = %q, want /mexico-city/", gotPath)
	}
	if gotToken != "secret" {
		t.Errorf("token param = %q, want secret", gotToken)
	}
}

func TestWAQIClient_FetchPM25_Failures(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{
			name:       "non-200 response",
			statusCode: http.StatusBadGateway,
			body:       `{}`,
			wantErr:    ErrUpstreamFailure,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			body:       `{}`,
			wantErr:    ErrUpstreamFailure,
		},
		{
			name:       "malformed json",
			statusCode: http.StatusOK,
			body:       `{"status":`,
			wantErr:    ErrBadPayload,
		},
		{
			name:       "feed error status",
			statusCode: http.StatusOK,
			body:       `{"status":"error","data":{}}`,
			wantErr:    ErrBadPayload,
		},
		{
			name:       "missing pm25 field",
			statusCode: http.StatusOK,
			body:       `{"status":"ok","data":{"iaqi":{}}}`,
			wantErr:    ErrBadPayload,
		},
		{
			name:       "non-numeric value",
			statusCode: http.StatusOK,
			body:       `{"status":"ok","data":{"iaqi":{"pm25":{"v":"n/a"}}}}`,
			wantErr:    ErrBadPayload,
		},
		{
			name:       "negative reading",
			statusCode: http.StatusOK,
			body:       `{"status":"ok","data":{"iaqi":{"pm25":{"v":-5}}}}`,
			wantErr:    ErrOutOfRange,
		},
		{
			name:       "implausibly high reading",
			statusCode: http.StatusOK,
			body:       `{"status":"ok","data":{"iaqi":{"pm25":{"v":1500}}}}`,
			wantErr:    ErrOutOfRange,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := feedServer(t, tc.statusCode, tc.body)
			defer srv.Close()

			c := NewWAQIClient("token", srv.URL, 2*time.Second)
			_, err := c.FetchPM25(context.Background(), "delhi")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("FetchPM25() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestWAQIClient_FetchPM25_BoundaryValues(t *testing.T) {
	for _, tc := range []struct {
		body string
		want float64
	}{
		{body: `{"status":"ok","data":{"iaqi":{"pm25":{"v":0}}}}`, want: 0},
		{body: `{"status":"ok","data":{"iaqi":{"pm25":{"v":1000}}}}`, want: 1000},
	} {
		srv := feedServer(t, http.StatusOK, tc.body)
		c := NewWAQIClient("token", srv.URL, 2*time.Second)
		got, err := c.FetchPM25(context.Background(), "delhi")
		srv.Close()
		if err != nil {
			t.Fatalf("FetchPM25() error = %v, want nil for boundary value %v", err, tc.want)
		}
		if got != tc.want {
			t.Errorf("FetchPM25() = %v, want %v", got, tc.want)
		}
	}
}

func TestWAQIClient_FetchPM25_NetworkError(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{}`)
	srv.Close() // connection refused from here on

	c := NewWAQIClient("token", srv.URL, time.Second)
	_, err := c.FetchPM25(context.Background(), "delhi")
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("FetchPM25() error = %v, want ErrUpstreamFailure", err)
	}
}

// TestWAQIClient_BreakerFailsFast verifies that an open breaker rejects
// calls without hitting the feed.
func TestWAQIClient_BreakerFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWAQIClient("token", srv.URL, time.Second)
	c.SetCircuitBreaker(circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	}))

	for i := 0; i < 2; i++ {
		if _, err := c.FetchPM25(context.Background(), "delhi"); err == nil {
			t.Fatal("expected upstream failure")
		}
	}
	callsBeforeOpen := calls

	_, err := c.FetchPM25(context.Background(), "delhi")
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("FetchPM25() error = %v, want ErrOpen", err)
	}
	if calls != callsBeforeOpen {
		t.Errorf("feed was called while circuit open (%d -> %d calls)", callsBeforeOpen, calls)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{name: "upstream", err: ErrUpstreamFailure, want: ReasonUpstream},
		{name: "payload", err: ErrBadPayload, want: ReasonBadPayload},
		{name: "range", err: ErrOutOfRange, want: ReasonOutOfRange},
		{name: "breaker", err: circuitbreaker.ErrOpen, want: ReasonBreakerOpen},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonTimeout},
		{name: "other", err: errors.New("boom"), want: ReasonUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.err); got != tc.want {
				t.Fatalf("Categorize(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
