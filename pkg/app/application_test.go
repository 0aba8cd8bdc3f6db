package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp/pkg/config"
	"rsvp/pkg/logger"
	"rsvp/pkg/middleware"
)

type routes func(*httprouter.Router)

func (f routes) RegisterRoutes(r *httprouter.Router) { f(r) }

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		Port:            "0",
		RequestTimeout:  time.Second,
		IdempotencyTTL:  time.Minute,
		MaxRequestSize:  1024,
		ShutdownTimeout: time.Second,
		Log:             logger.Discard(),
	}

	health := routes(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
	})
	api := routes(func(r *httprouter.Router) {
		r.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusCreated)
		})
		r.GET("/api/v1/panic", func(http.ResponseWriter, *http.Request, httprouter.Params) {
			panic("boom")
		})
	})

	a := NewApplication(cfg)
	a.SetApp(health, api)
	t.Cleanup(a.idempotencyStore.Stop)
	return a
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestApplication_APIMiddleware(t *testing.T) {
	a := newTestApplication(t)

	t.Run("content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`hello`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("recovery", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestApplication_ClosersRunInOrder(t *testing.T) {
	a := newTestApplication(t)

	var order []string
	a.OnShutdown("store", func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	a.OnShutdown("events", func(context.Context) error {
		order = append(order, "events")
		return errors.New("already closed")
	})
	a.OnShutdown("mongo", func(context.Context) error {
		order = append(order, "mongo")
		return nil
	})

	a.runClosers(context.Background())
	require.Equal(t, []string{"store", "events", "mongo"}, order)
}
