package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	store *storage.Store
	mem   *kv.MemoryStore
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	mem := kv.NewMemoryStore()
	n := 0
	store := storage.New(mem,
		storage.WithClock(func() time.Time { return fixedNow }),
		storage.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }))
	_, err := store.Seed(context.Background())
	require.NoError(t, err)

	opts.Now = func() time.Time { return fixedNow }
	opts.Logger = log.New(log.Config{Component: log.ComponentHTTP, Output: io.Discard})
	srv := NewServer(":0", services.NewLedgerService(store, nil), opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store, mem: mem}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", "").Code)

	down := newTestEnv(t, Options{Ready: func(context.Context) error { return errors.New("db gone") }})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestMiddleware_HeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("X-Request-ID", "5b0c2f3e-8a55-4a43-9d0b-3c1b1f7d2a10")
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "5b0c2f3e-8a55-4a43-9d0b-3c1b1f7d2a10", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, int64(1), env.srv.Metrics().TotalRequests)
}

func TestMiddleware_RejectsProbes(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodGet, "/api/categories?file=../../etc/passwd", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMiddleware_RateLimitsWritesOnly(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitRPM: 1})

	limited := false
	for i := 0; i < 30; i++ {
		if env.do(t, http.MethodPost, "/api/recurring/catch-up", "").Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "writes should eventually be rate limited")

	for i := 0; i < 30; i++ {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/categories", "").Code)
	}
}

func TestCategoriesAPI(t *testing.T) {
	env := newTestEnv(t, Options{})

	cats := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
	assert.Len(t, cats, 12)

	income := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories?type=income", ""))
	assert.Len(t, income, 2)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/categories?type=savings", "").Code)

	rr := env.do(t, http.MethodPost, "/api/categories", `{"name":"  Pets ","type":"expense"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[core.Category](t, rr)
	assert.Equal(t, "Pets", created.Name)
	assert.False(t, created.System)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/categories", `{"name":" ","type":"expense"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/categories", `{"name":"X","type":"gift"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/categories", `{"name":`).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPatch, "/api/categories/"+created.ID, `{"name":"Animals"}`).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPatch, "/api/categories/missing", `{"name":"Ghost"}`).Code)

	cats = decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
	require.Len(t, cats, 13)
	assert.Equal(t, "Animals", cats[12].Name)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/categories/"+created.ID, "").Code)
	cats = decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
	assert.Len(t, cats, 12)
}

func TestCategoriesAPI_Reorder(t *testing.T) {
	env := newTestEnv(t, Options{})
	cats := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))

	t.Run("cross type rejected", func(t *testing.T) {
		bad := append([]core.Category(nil), cats...)
		bad[0].Type = core.Income
		body, _ := json.Marshal(bad)
		assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPut, "/api/categories/order", string(body)).Code)

		after := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
		assert.Equal(t, cats, after)
	})

	t.Run("swap within type", func(t *testing.T) {
		reordered := append([]core.Category(nil), cats...)
		reordered[0], reordered[1] = reordered[1], reordered[0]
		body, _ := json.Marshal(reordered)
		require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPut, "/api/categories/order", string(body)).Code)

		after := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
		assert.Equal(t, "Utilities", after[0].Name)
		assert.Equal(t, "Housing", after[1].Name)
	})

	t.Run("move", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/api/categories/c3/move", `{"overId":"c2"}`).Code)
		assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/categories/c11/move", `{"overId":"c1"}`).Code)
	})
}

func TestTransactionsAPI(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"12,50","category":"Food","date":"2024-03-01","description":"Lunch"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	first := decode[core.Transaction](t, rr)
	assert.Equal(t, 12.5, first.Amount)
	assert.Equal(t, fixedNow, first.CreatedAt)

	rr = env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"income","amount":100,"category":"Salary","date":"2024-03-10","description":"Bonus"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	cases := []struct {
		name string
		body string
		want int
	}{
		{"unparseable amount", `{"type":"expense","amount":"abc","category":"Food","date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"type":"expense","amount":-5,"category":"Food","date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"type":"expense","amount":5,"category":"Food","date":"03/01/2024"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"type":"loan","amount":5,"category":"Food","date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"type":"expense","amount":5,"date":"2024-03-01","tags":[]}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, env.do(t, http.MethodPost, "/api/transactions", tc.body).Code)
		})
	}

	list := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions?catchup=0", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "Bonus", list[0].Description, "newest date first")

	expenses := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions?type=expense", ""))
	require.Len(t, expenses, 1)

	rr = env.do(t, http.MethodPut, "/api/transactions/"+first.ID,
		`{"type":"expense","amount":20,"category":"Food","date":"2024-03-02","description":"Dinner"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)

	list = decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "Dinner", list[1].Description)
	assert.Equal(t, fixedNow, list[1].CreatedAt, "createdAt is preserved")

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/transactions/"+first.ID, "").Code)
	list = decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/transactions?month=13", "").Code)
}

func TestTransactionsAPI_RepeatCreatesTemplate(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":15.99,"category":"Entertainment","date":"2024-03-15","description":"Streaming","repeat":true}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	tpls := decode[[]core.RecurringTemplate](t, env.do(t, http.MethodGet, "/api/recurring", ""))
	require.Len(t, tpls, 1)
	assert.Equal(t, "Streaming", tpls[0].Description)
	assert.Equal(t, 15, tpls[0].DayOfMonth)
}

func TestRecurringAPI_CatchUpOnReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Options{CatchUpOnRead: true})
	ctx := context.Background()
	require.NoError(t, env.store.Update(ctx, func(st *storage.State) error {
		st.Recurring = append(st.Recurring, core.RecurringTemplate{
			ID: "r1", Type: core.Expense, Amount: 50, Category: "Utilities", Description: "Internet",
			LastGenerated: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), DayOfMonth: 15,
		})
		st.Touch(storage.RecurringKey)
		return nil
	}))

	list := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-15", list[0].Date.String())
	assert.Equal(t, "2024-02-15", list[1].Date.String())
	assert.Equal(t, "Internet"+core.RecurringSuffix, list[0].Description)

	list = decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	assert.Len(t, list, 2)

	rr := env.do(t, http.MethodPost, "/api/recurring/catch-up", "")
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[struct {
		Generated int `json:"generated"`
	}](t, rr)
	assert.Equal(t, 0, res.Generated)
}

func TestRecurringAPI_Add(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodPost, "/api/recurring",
		`{"type":"expense","amount":"1200","category":"Housing","description":"Rent","dayOfMonth":1}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tpl := decode[core.RecurringTemplate](t, rr)
	assert.Equal(t, fixedNow, tpl.LastGenerated)
	assert.Equal(t, 1, tpl.DayOfMonth)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/recurring",
		`{"type":"expense","amount":5,"category":"Housing","dayOfMonth":40}`).Code)
}

func TestDashboardAPI(t *testing.T) {
	env := newTestEnv(t, Options{})
	_, err := env.store.SeedDemo(context.Background())
	require.NoError(t, err)

	summary := decode[map[string]float64](t, env.do(t, http.MethodGet, "/api/summary?year=2023&month=10", ""))
	assert.Equal(t, 3500.0, summary["income"])
	assert.Equal(t, 1410.0, summary["expense"])
	assert.Equal(t, 2090.0, summary["balance"])

	empty := decode[map[string]float64](t, env.do(t, http.MethodGet, "/api/summary?year=2024", ""))
	assert.Equal(t, 0.0, empty["balance"])

	total := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/categories/Housing/total", ""))
	assert.Equal(t, 1200.0, total["total"])

	years := decode[[]int](t, env.do(t, http.MethodGet, "/api/years", ""))
	assert.Equal(t, []int{2023}, years)

	months := decode[[]core.MonthOverview](t, env.do(t, http.MethodGet, "/api/months?year=2023", ""))
	require.Len(t, months, 12)
	assert.Equal(t, 4, months[9].Count)
	require.NotEmpty(t, months[9].ByCategory)
	assert.Equal(t, "Housing", months[9].ByCategory[0].Name)

	chart := decode[[]core.ChartPoint](t, env.do(t, http.MethodGet, "/api/chart", ""))
	require.Len(t, chart, 6)
	assert.Equal(t, 3, chart[5].Month)

	yearChart := decode[[]core.ChartPoint](t, env.do(t, http.MethodGet, "/api/chart?year=2023", ""))
	require.Len(t, yearChart, 12)
	assert.Equal(t, 3500.0, yearChart[9].Income)
}

func TestDashboardAPI_MutationsInvalidateCache(t *testing.T) {
	env := newTestEnv(t, Options{})

	months := decode[[]core.MonthOverview](t, env.do(t, http.MethodGet, "/api/months", ""))
	assert.Equal(t, 0, months[2].Count)
	assert.Equal(t, 1, env.srv.overviewCache.Size())

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":30,"category":"Food","date":"2024-03-03"}`).Code)
	assert.Equal(t, 0, env.srv.overviewCache.Size())

	months = decode[[]core.MonthOverview](t, env.do(t, http.MethodGet, "/api/months", ""))
	assert.Equal(t, 1, months[2].Count)
	assert.Equal(t, 30.0, months[2].Summary.Expense.InexactFloat64())
}

func TestBackupAPI(t *testing.T) {
	src := newTestEnv(t, Options{})
	_, err := src.store.SeedDemo(context.Background())
	require.NoError(t, err)

	rr := src.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "fintrack-backup-2024-03-15.json")
	backup := rr.Body.String()

	dst := newTestEnv(t, Options{})
	require.Equal(t, http.StatusNoContent, dst.do(t, http.MethodPost, "/api/import", backup).Code)
	list := decode[[]core.Transaction](t, dst.do(t, http.MethodGet, "/api/transactions", ""))
	assert.Len(t, list, 4)

	before, _, _ := dst.mem.Get(context.Background(), storage.TransactionsKey)
	assert.Equal(t, http.StatusBadRequest, dst.do(t, http.MethodPost, "/api/import", `{"categories":[]}`).Code)
	after, _, _ := dst.mem.Get(context.Background(), storage.TransactionsKey)
	assert.Equal(t, before, after)
}
