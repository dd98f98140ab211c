package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CurveDash/internal/domain/models"
	"CurveDash/internal/service/curveseries"
	"CurveDash/internal/usecase"
	xlogger "CurveDash/pkg/logger"
)

// --- fakes ---

type memStore struct {
	packets map[models.Identity]*models.DataPacket
	healthy bool
}

func newMemStore() *memStore {
	return &memStore{packets: make(map[models.Identity]*models.DataPacket), healthy: true}
}

func (s *memStore) Upsert(_ context.Context, p *models.DataPacket) error {
	s.packets[p.Identity()] = p
	return nil
}

func (s *memStore) BulkUpsert(ctx context.Context, packets []*models.DataPacket) (int, error) {
	for _, p := range packets {
		if err := s.Upsert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(packets), nil
}

func (s *memStore) QueryRange(_ context.Context, ticker string, start, end time.Time, source string) ([]*models.DataPacket, error) {
	out := make([]*models.DataPacket, 0)
	for _, p := range s.packets {
		if p.Ticker != ticker || (source != "" && p.Source != source) {
			continue
		}
		if p.Timestamp.Before(start) || p.Timestamp.After(end) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *memStore) Latest(_ context.Context, ticker, source string) (*models.DataPacket, error) {
	var latest *models.DataPacket
	for _, p := range s.packets {
		if p.Ticker != ticker || (source != "" && p.Source != source) {
			continue
		}
		if latest == nil || p.Timestamp.After(latest.Timestamp) {
			latest = p
		}
	}
	return latest, nil
}

func (s *memStore) ListTickers(_ context.Context, source string) ([]string, error) {
	seen := make(map[string]bool)
	for _, p := range s.packets {
		if source == "" || p.Source == source {
			seen[p.Ticker] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) Health(context.Context) error {
	if !s.healthy {
		return models.NewStorageError("ping", context.DeadlineExceeded)
	}
	return nil
}

type memRegistry struct{}

func (memRegistry) Get(_ context.Context, name string) (*models.DataSource, error) {
	return &models.DataSource{ID: 1, Name: name, Enabled: true}, nil
}
func (r memRegistry) List(ctx context.Context) ([]*models.DataSource, error) {
	d, _ := r.Get(ctx, "curveseries")
	return []*models.DataSource{d}, nil
}
func (r memRegistry) ListEnabled(ctx context.Context) ([]*models.DataSource, error) {
	return r.List(ctx)
}
func (memRegistry) TouchLastSync(context.Context, string, time.Time) error { return nil }

type memFavorites struct {
	next  int64
	items map[int64]*models.Favorite
}

func newMemFavorites() *memFavorites {
	return &memFavorites{next: 1, items: make(map[int64]*models.Favorite)}
}

func (s *memFavorites) List(_ context.Context, userID string) ([]*models.Favorite, error) {
	out := make([]*models.Favorite, 0)
	for _, f := range s.items {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memFavorites) Add(_ context.Context, f *models.Favorite) (*models.Favorite, error) {
	f.ID = s.next
	s.next++
	f.CreatedAt = time.Now()
	s.items[f.ID] = f
	return f, nil
}

func (s *memFavorites) Remove(_ context.Context, id int64) error {
	if _, ok := s.items[id]; !ok {
		return models.ErrNoData
	}
	delete(s.items, id)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSync(string, string)          {}
func (nopMetrics) RecordSyncDuration(string, float64) {}
func (nopMetrics) RecordFetch(string, bool)           {}
func (nopMetrics) RecordRowsUpserted(string, int)     {}
func (nopMetrics) RecordRowsDropped(string, int)      {}
func (nopMetrics) RecordCacheHit(string)              {}

// --- helpers ---

func newTestHandler(t *testing.T, store *memStore) *DataHandler {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	sync := usecase.NewSyncService(store, memRegistry{}, nil,
		curveseries.NewNormalizer("curveseries"), nopMetrics{}, l)
	return NewDataHandler(l, sync, store, nil, 0, 30)
}

func seed(t *testing.T, store *memStore, ticker string, day int) {
	t.Helper()
	err := store.Upsert(context.Background(), &models.DataPacket{
		Source: "curveseries", Ticker: ticker,
		Timestamp: time.Date(2025, time.December, day, 0, 0, 0, 0, time.UTC),
		Value:     float64(day), Unit: models.DefaultUnit,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func doGet(h echo.HandlerFunc, target string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func doJSON(h echo.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

// --- tests ---

func TestHistoryServedFromCache(t *testing.T) {
	store := newMemStore()
	for d := 24; d <= 26; d++ {
		seed(t, store, "CL.F26", d)
	}
	h := newTestHandler(t, store)

	rec, err := doGet(h.History, "/api/history?ticker=CL.F26&start=2025-12-24&end=2025-12-26")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Count  int  `json:"count"`
			Synced bool `json:"synced"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Data.Count)
	}
	if resp.Data.Synced {
		t.Error("cache-served request must not report synced")
	}
}

func TestHistoryRequiresTicker(t *testing.T) {
	h := newTestHandler(t, newMemStore())

	rec, err := doGet(h.History, "/api/history")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryInvertedRange(t *testing.T) {
	store := newMemStore()
	seed(t, store, "CL.F26", 24)
	h := newTestHandler(t, store)

	rec, err := doGet(h.History, "/api/history?ticker=CL.F26&start=2025-12-26&end=2025-12-24")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for inverted range", rec.Code)
	}
}

func TestHistoryNoFeedNoData(t *testing.T) {
	h := newTestHandler(t, newMemStore())

	rec, err := doGet(h.History, "/api/history?ticker=UNKNOWN&start=2025-12-24&end=2025-12-26")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with no feed and empty cache", rec.Code)
	}
}

func TestLatest(t *testing.T) {
	store := newMemStore()
	seed(t, store, "CL.F26", 24)
	seed(t, store, "CL.F26", 26)
	h := newTestHandler(t, store)

	rec, err := doGet(h.Latest, "/api/latest?ticker=CL.F26")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.DataPacket `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC)
	if !resp.Data.Timestamp.Equal(want) {
		t.Errorf("latest ts = %v, want %v", resp.Data.Timestamp, want)
	}
}

func TestLatestNotFound(t *testing.T) {
	h := newTestHandler(t, newMemStore())

	rec, err := doGet(h.Latest, "/api/latest?ticker=NOPE")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTickers(t *testing.T) {
	store := newMemStore()
	seed(t, store, "B", 24)
	seed(t, store, "A", 24)
	h := newTestHandler(t, store)

	rec, err := doGet(h.Tickers, "/api/tickers")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Rows  []string `json:"rows"`
			Total int64    `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 2 || len(resp.Data.Rows) != 2 {
		t.Fatalf("rows = %v", resp.Data.Rows)
	}
	if resp.Data.Rows[0] != "A" || resp.Data.Rows[1] != "B" {
		t.Errorf("tickers not sorted: %v", resp.Data.Rows)
	}
}

func TestHealthz(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(t, store)

	rec, err := doGet(h.Healthz, "/healthz")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	store.healthy = false
	rec, err = doGet(h.Healthz, "/healthz")
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when store is down", rec.Code)
	}
}

func TestFavoritesLifecycle(t *testing.T) {
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	favs := newMemFavorites()
	h := NewFavoritesHandler(l, favs)

	rec, err := doJSON(h.Add, http.MethodPost, "/api/favorites", `{"ticker":"CL.F26","display_name":"Crude Dec26"}`)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data models.Favorite `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.UserID != "default" {
		t.Errorf("user id = %q, want default", created.Data.UserID)
	}

	rec, err = doGet(h.List, "/api/favorites")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	// Remove through the routed param.
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/favorites/1", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want 204", rr.Code)
	}

	// Removing again is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/api/favorites/1", nil)
	rr = httptest.NewRecorder()
	c = e.NewContext(req, rr)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", rr.Code)
	}
}

func TestFavoritesAddValidation(t *testing.T) {
	l, _ := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	h := NewFavoritesHandler(l, newMemFavorites())

	rec, err := doJSON(h.Add, http.MethodPost, "/api/favorites", `{"display_name":"missing ticker"}`)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
