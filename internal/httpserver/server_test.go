package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/dispatch"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []chat.Event
	err    error
}

func (f *fakeDispatcher) Dispatch(ev chat.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeDispatcher) Workers() int { return 3 }

type fakeStore struct {
	pingErr error
	count   int64
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Count(context.Context) (int64, error) { return f.count, nil }

func newTestServer(t *testing.T, mutate func(*deps.Deps)) (http.Handler, *fakeDispatcher) {
	t.Helper()
	disp := &fakeDispatcher{}
	d := deps.Deps{
		Logger:        logger.Nop(),
		StartTime:     time.Now(),
		Version:       "v1.2.3",
		WebhookPath:   "/anime",
		WebhookSecret: "s3cret",
		Backend:       "memory",
		Store:         &fakeStore{count: 7},
		Dispatcher:    disp,
		Metrics:       metrics.New().Handler(),
		ReloadTrigger: make(chan struct{}, 1),
	}
	if mutate != nil {
		mutate(&d)
	}
	srv := New(":0", logger.Nop(), d)
	return srv.Handler(), disp
}

func postUpdate(h http.Handler, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/anime", strings.NewReader(body))
	req.RemoteAddr = "149.154.167.1:443"
	if secret != "" {
		req.Header.Set(mw.SecretTokenHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const messageUpdate = `{"update_id": 10, "message": {"message_id": 5, "date": 0, "chat": {"id": 42, "type": "private"}, "text": "/show"}}`

func TestWebhookDispatchesEvent(t *testing.T) {
	h, disp := newTestServer(t, nil)

	rec := postUpdate(h, messageUpdate, "s3cret")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, disp.events, 1)
	assert.Equal(t, int64(42), disp.events[0].ChatID)
	assert.Equal(t, "/show", disp.events[0].Text)
}

func TestWebhookSecretToken(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{name: "missing", secret: "", want: http.StatusUnauthorized},
		{name: "wrong", secret: "nope", want: http.StatusUnauthorized},
		{name: "valid", secret: "s3cret", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, nil)
			rec := postUpdate(h, messageUpdate, tt.secret)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWebhookWithoutSecretIsOpen(t *testing.T) {
	h, disp := newTestServer(t, func(d *deps.Deps) { d.WebhookSecret = "" })

	rec := postUpdate(h, messageUpdate, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, disp.events, 1)
}

func TestWebhookCIDR(t *testing.T) {
	h, disp := newTestServer(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	rec := postUpdate(h, messageUpdate, "s3cret")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, disp.events)
}

func TestWebhookMalformedBody(t *testing.T) {
	h, disp := newTestServer(t, nil)

	rec := postUpdate(h, "{not json", "s3cret")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, disp.events)
}

func TestWebhookAcknowledgesDroppedAndIgnoredUpdates(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{name: "queue full", body: messageUpdate, err: dispatch.ErrQueueFull},
		{name: "rate limited", body: messageUpdate, err: dispatch.ErrRateLimited},
		{name: "no message", body: `{"update_id": 11}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, disp := newTestServer(t, nil)
			disp.err = tt.err
			rec := postUpdate(h, tt.body, "s3cret")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, disp.events)
		})
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "v1.2.3", body["version"])
	assert.Equal(t, float64(3), body["chat_workers"])
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    int
	}{
		{name: "store reachable", want: http.StatusOK},
		{name: "store down", pingErr: errors.New("connection refused"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, func(d *deps.Deps) { d.Store = &fakeStore{pingErr: tt.pingErr} })
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestInfra(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK       bool   `json:"ok"`
			Backend  string `json:"backend"`
			Sessions *int64 `json:"sessions"`
			Workers  *int   `json:"workers"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "operational", body.Mode)
	require.NotNil(t, body.Components["sessions"].Sessions)
	assert.Equal(t, int64(7), *body.Components["sessions"].Sessions)
	assert.Equal(t, "memory", body.Components["sessions"].Backend)
	require.NotNil(t, body.Components["dispatcher"].Workers)
	assert.Equal(t, 3, *body.Components["dispatcher"].Workers)
}

func TestInfraCriticalWhenStoreDown(t *testing.T) {
	h, _ := newTestServer(t, func(d *deps.Deps) { d.Store = &fakeStore{pingErr: errors.New("down")} })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))

	assert.Contains(t, rec.Body.String(), `"mode":"critical"`)
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReload(t *testing.T) {
	trigger := make(chan struct{}, 1)
	h, _ := newTestServer(t, func(d *deps.Deps) { d.ReloadTrigger = trigger })

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusAccepted, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	<-trigger
}

func TestAdminRoutesRespectAdminCIDRS(t *testing.T) {
	h, _ := newTestServer(t, func(d *deps.Deps) { d.AdminCIDRS = []string{"127.0.0.1/32"} })

	for _, path := range []string{"/infra", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "healthz stays public")
}

func TestRoutes(t *testing.T) {
	srv := New(":0", logger.Nop(), deps.Deps{
		Logger:      logger.Nop(),
		WebhookPath: "/anime",
		Store:       &fakeStore{},
		Dispatcher:  &fakeDispatcher{},
	})

	got := srv.Routes()
	assert.Contains(t, got, "POST /anime")
	assert.Contains(t, got, "GET /healthz")
	assert.Contains(t, got, "GET /readyz")
	assert.NotContains(t, got, "GET /metrics", "no metrics handler configured")
	assert.NotContains(t, got, "POST /reload", "no reload trigger configured")
}
