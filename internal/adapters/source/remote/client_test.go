package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hylla/slaboard/internal/adapters/source/bundled"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

const definitionsBody = `{"activities":[{"activityId":"X-01","appId":"1X","businessArea":"X","activityName":"Remote Job","activityType":"TRADE"}]}`

const statusesBody = `{"statuses":[{"activityId":"X-01","appId":"1X","businessArea":"X","businessDate":"2025-11-16","activityStatus":"COMPLETED","slaStatus":"SLA_SUCCESS","runId":"001"}]}`

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchesRemoteDocuments(t *testing.T) {
	srv := newServer(t, map[string]string{
		DefinitionsPath: definitionsBody,
		StatusesPath:    statusesBody,
	})
	client, err := New(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defs, err := client.FetchDefinitions(context.Background())
	if err != nil {
		t.Fatalf("FetchDefinitions() error = %v", err)
	}
	if len(defs) != 1 || defs[0].ActivityID != "X-01" {
		t.Fatalf("unexpected definitions %#v", defs)
	}
	statuses, err := client.FetchStatuses(context.Background())
	if err != nil {
		t.Fatalf("FetchStatuses() error = %v", err)
	}
	if len(statuses) != 1 || statuses[0].RunID != "001" {
		t.Fatalf("unexpected statuses %#v", statuses)
	}
	if got := client.Origin(); got != Origin {
		t.Fatalf("expected remote origin, got %q", got)
	}
}

func TestClientFallsBackToBundled(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]string
	}{
		{name: "not found", routes: map[string]string{}},
		{name: "malformed", routes: map[string]string{DefinitionsPath: `{"activities":`, StatusesPath: `not json`}},
		{name: "missing key", routes: map[string]string{DefinitionsPath: `{"items":[]}`, StatusesPath: `{"statuses":null}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.routes)
			logger := &recordingLogger{}
			client, err := New(Config{BaseURL: srv.URL}, WithLogger(logger))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defs, err := client.FetchDefinitions(context.Background())
			if err != nil {
				t.Fatalf("FetchDefinitions() error = %v", err)
			}
			statuses, err := client.FetchStatuses(context.Background())
			if err != nil {
				t.Fatalf("FetchStatuses() error = %v", err)
			}
			if len(defs) != len(bundled.Definitions()) || len(statuses) != len(bundled.Statuses()) {
				t.Fatalf("expected bundled data, got defs=%d statuses=%d", len(defs), len(statuses))
			}
			if got := client.Origin(); got != bundled.Origin {
				t.Fatalf("expected bundled origin, got %q", got)
			}
			if len(logger.warns) != 2 {
				t.Fatalf("expected 2 fallback warnings, got %#v", logger.warns)
			}
		})
	}
}

func TestClientMixedOrigin(t *testing.T) {
	srv := newServer(t, map[string]string{DefinitionsPath: definitionsBody})
	client, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.FetchDefinitions(context.Background()); err != nil {
		t.Fatalf("FetchDefinitions() error = %v", err)
	}
	if _, err := client.FetchStatuses(context.Background()); err != nil {
		t.Fatalf("FetchStatuses() error = %v", err)
	}
	if got := client.Origin(); got != "remote+bundled" {
		t.Fatalf("expected mixed origin, got %q", got)
	}
}

func TestClientWithoutFallbackReturnsError(t *testing.T) {
	srv := newServer(t, map[string]string{})
	client, err := New(Config{BaseURL: srv.URL}, WithFallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = client.FetchStatuses(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status=404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestClientDoesNotFallBackOnCancel(t *testing.T) {
	srv := newServer(t, map[string]string{DefinitionsPath: definitionsBody})
	client, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchDefinitions(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
	if _, err := New(Config{BaseURL: "ftp://example.test"}); err == nil {
		t.Fatal("expected scheme error")
	}
}
