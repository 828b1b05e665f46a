package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestMiddlewaresStacks ensures we get both public and ops middlewares
// stacks with exact number of elements in those stacks.
func TestMiddlewaresStacks(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	pub, ops := api.MiddlewaresStacks()
	assert.Equal(t, 7, len(*pub))
	assert.Equal(t, 5, len(*ops))
}

// TestChain ensures each middleware in the stack is called as well the handler.
func TestChain(t *testing.T) {
	var ca, cb, cc, ch bool
	queue := make(chan int, 4)

	middlewareA := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 1
			ca = true
			next(w, r, ps)
		}
	}
	middlewareB := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 2
			cb = true
			next(w, r, ps)
		}
	}
	middlewareC := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 3
			cc = true
			next(w, r, ps)
		}
	}
	middlewares := Middlewares{
		middlewareA,
		middlewareB,
		middlewareC,
	}

	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		queue <- 4
		ch = true
	}

	chained := (&middlewares).Chain(handler)
	req := httptest.NewRequest("GET", "/book/list", nil)
	w := httptest.NewRecorder()
	chained(w, req, nil)

	t.Run("check calling", func(t *testing.T) {
		assert.Equal(t, true, ca)
		assert.Equal(t, true, cb)
		assert.Equal(t, true, cc)
		assert.Equal(t, true, ch)
	})

	t.Run("check ordering", func(t *testing.T) {
		assert.Equal(t, 1, <-queue)
		assert.Equal(t, 2, <-queue)
		assert.Equal(t, 3, <-queue)
		assert.Equal(t, 4, <-queue)
	})
}

// TestRequestsCounterMiddleware ensures the request counter increment.
func TestRequestsCounterMiddleware(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	var num uint64
	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		num = GetRequestNumberFromContext(r.Context())
	}
	wrapped := api.RequestsCounterMiddleware(handler)
	wrapped(httptest.NewRecorder(), httptest.NewRequest("GET", "/book/list", nil), nil)
	assert.Equal(t, uint64(1), num)
	wrapped(httptest.NewRecorder(), httptest.NewRequest("GET", "/book/list", nil), nil)
	assert.Equal(t, uint64(2), num)
	assert.Equal(t, uint64(2), api.stats.called)
}

// TestRequestIDMiddleware ensures the request id is stored and echoed.
func TestRequestIDMiddleware(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	var requestID string
	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID = GetValueFromContext(r.Context(), RequestIDContextKey)
	}
	w := httptest.NewRecorder()
	api.RequestIDMiddleware(handler)(w, httptest.NewRequest("GET", "/status", nil), nil)
	assert.Equal(t, "r:test", requestID)
	assert.Equal(t, "r:test", w.Header().Get("X-Request-ID"))
}

// TestStatsMiddleware ensures each response status is counted.
func TestStatsMiddleware(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	ok := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	}
	missing := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.WriteHeader(http.StatusNotFound)
	}
	api.StatsMiddleware(ok)(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), nil)
	api.StatsMiddleware(ok)(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), nil)
	api.StatsMiddleware(missing)(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), nil)
	assert.Equal(t, uint64(2), api.stats.status[http.StatusOK])
	assert.Equal(t, uint64(1), api.stats.status[http.StatusNotFound])
}

// TestCustomResponseWriter ensures the first status code and the body size are recorded.
func TestCustomResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := NewCustomResponseWriter(rec)
	cw.WriteHeader(http.StatusCreated)
	cw.WriteHeader(http.StatusTeapot)
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, cw.Status())
	assert.Equal(t, 5, cw.Bytes())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, rec, cw.Unwrap())
}

// TestCORSMiddleware ensures cors headers are set.
func TestCORSMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	CORSMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {})(w, httptest.NewRequest("GET", "/", nil), nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

// TestPanicRecoveryMiddleware ensures a panic is turned into a 500 response.
func TestPanicRecoveryMiddleware(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	public, _ := api.MiddlewaresStacks()
	handler := public.Chain(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler(w, httptest.NewRequest("GET", "/book/1", nil), nil)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	expected := `{"requestid":"r:test", "status":500, "message":"failed to process the request.", "data":{}}`
	assert.JSONEq(t, expected, w.Body.String())
}

// TestMaintenanceMode ensures public requests are refused while the maintenance
// mode is enabled and that ops requests are still served.
func TestMaintenanceMode(t *testing.T) {
	api := newTestAPIHandler(NewMemoryBookStorage(zap.NewNop()))
	api.config.OpsEndpointsEnable = true
	public, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	w := serve("/book/list")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve("/ops/maintenance?status=enable&msg=upgrading")
	require.Equal(t, http.StatusOK, w.Code)
	var enabled map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enabled))
	assert.Equal(t, "Maintenance mode enabled successfully.", enabled["message"])
	assert.Equal(t, "upgrading", enabled["maintenance.message"])
	assert.Equal(t, "Sun, 02 Jul 2023 00:00:00 UTC", enabled["maintenance.started"])

	w = serve("/book/list")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	expected := `{"message":"service currently unavailable.", "reason":"upgrading", "since":"Sun, 02 Jul 2023 00:00:00 UTC"}`
	assert.JSONEq(t, expected, w.Body.String())

	w = serve("/ops/stats")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve("/ops/maintenance?status=disable")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"requestid":"r:test", "message":"Maintenance mode disabled successfully."}`, w.Body.String())

	w = serve("/book/list")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve("/ops/maintenance?status=pause")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
