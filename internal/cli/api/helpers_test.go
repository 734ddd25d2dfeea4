package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
	"DocPlatform/internal/cli/repo/memory"
)

// seenRequest — запрос, дошедший до тестового сервера.
type seenRequest struct {
	Path      string
	Auth      string
	RequestID string
	Body      []byte
}

// fakeAPI — минимальный бэкенд с JWT-подобной ротацией токенов.
type fakeAPI struct {
	*httptest.Server

	mu            sync.Mutex
	access        string
	refresh       string
	gen           int
	refreshStatus int
	seen          []seenRequest

	gate         chan struct{}
	gateOnce     sync.Once
	refreshCalls atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{access: "access-0", refresh: "refresh-0"}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", f.handleRefresh)
	mux.HandleFunc("/api/always401/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/fail/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/slow/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/", f.handleProtected)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) baseURL() string { return f.URL + "/api" }

func (f *fakeAPI) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.seen = append(f.seen, seenRequest{
		Path:      r.URL.Path,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get(RequestIDHeader),
		Body:      body,
	})
	f.mu.Unlock()
	return body
}

func (f *fakeAPI) handleProtected(w http.ResponseWriter, r *http.Request) {
	body := f.record(r)

	f.mu.Lock()
	valid := f.access != "" && r.Header.Get("Authorization") == "Bearer "+f.access
	f.mu.Unlock()
	if !valid {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token_not_valid"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"path":         r.URL.Path,
		"query":        r.URL.RawQuery,
		"content_type": r.Header.Get("Content-Type"),
		"body":         string(body),
	})
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var req model.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.refreshStatus != 0 {
		w.WriteHeader(f.refreshStatus)
		_, _ = w.Write([]byte(`{"detail":"refresh rejected"}`))
		return
	}
	if req.Refresh != f.refresh {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token_not_valid"}`))
		return
	}
	f.gen++
	f.access = fmt.Sprintf("access-%d", f.gen)
	f.refresh = fmt.Sprintf("refresh-%d", f.gen)
	_ = json.NewEncoder(w).Encode(model.TokenPair{Access: f.access, Refresh: f.refresh})
}

// expireAccess делает недействительным текущий access-токен.
func (f *fakeAPI) expireAccess() {
	f.mu.Lock()
	f.access = ""
	f.mu.Unlock()
}

func (f *fakeAPI) failRefresh(status int) {
	f.mu.Lock()
	f.refreshStatus = status
	f.mu.Unlock()
}

// holdRefresh задерживает ответы refresh до releaseRefresh.
func (f *fakeAPI) holdRefresh(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
	t.Cleanup(f.releaseRefresh)
}

func (f *fakeAPI) releaseRefresh() {
	f.gateOnce.Do(func() {
		f.mu.Lock()
		close(f.gate)
		f.mu.Unlock()
	})
}

func (f *fakeAPI) requests(path string) []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []seenRequest
	for _, s := range f.seen {
		if s.Path == path {
			out = append(out, s)
		}
	}
	return out
}

// countingNav считает переходы на страницу входа.
type countingNav struct {
	n atomic.Int32
}

func (c *countingNav) RedirectToLogin() { c.n.Add(1) }

func (c *countingNav) count() int { return int(c.n.Load()) }

func loggedInStore() *memory.TokenStore {
	return memory.NewTokenStore(&model.TokenPair{Access: "access-0", Refresh: "refresh-0"})
}

func newTestClient(t *testing.T, baseURL string, store repo.TokenStore, nav Navigator, opts ...Option) *Client {
	t.Helper()
	c, err := New(baseURL, store, nav, opts...)
	require.NoError(t, err)
	return c
}

// waitPending ждёт, пока в очереди обновления окажется n запросов.
func waitPending(t *testing.T, c *Client, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Coordinator().Refreshing() && c.Coordinator().Pending() == n
	}, 3*time.Second, 2*time.Millisecond, "expected %d queued requests", n)
}

// hookTransport вызывает after после каждого ответа сервера.
type hookTransport struct {
	base  http.RoundTripper
	after func(*http.Request)
}

func (h hookTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := h.base.RoundTrip(r)
	if err == nil && h.after != nil {
		h.after(r)
	}
	return resp, err
}

func newEmptyStore() *memory.TokenStore { return memory.NewTokenStore(nil) }

// slowLoadStore отдаёт прочитанную пару с задержкой: после arm следующий
// Load читает хранилище, сообщает в paused и ждёт resume.
type slowLoadStore struct {
	repo.TokenStore

	armed  atomic.Bool
	paused chan struct{}
	resume chan struct{}
}

func newSlowLoadStore(inner repo.TokenStore) *slowLoadStore {
	return &slowLoadStore{
		TokenStore: inner,
		paused:     make(chan struct{}),
		resume:     make(chan struct{}),
	}
}

func (s *slowLoadStore) arm() { s.armed.Store(true) }

func (s *slowLoadStore) Load() (model.TokenPair, error) {
	pair, err := s.TokenStore.Load()
	if s.armed.CompareAndSwap(true, false) {
		close(s.paused)
		<-s.resume
	}
	return pair, err
}
