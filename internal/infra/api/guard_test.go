package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"content-commerce/internal/infra/logging"
)

func TestTraceID(t *testing.T) {
	var seen string
	h := TraceID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceIDFrom(r.Context())
	}))

	t.Run("should reuse the gateway id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if seen != "req-42" || rr.Header().Get(RequestIDHeader) != "req-42" {
			t.Fatalf("expected req-42, got %q / %q", seen, rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("should mint an id when missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" || seen != rr.Header().Get(RequestIDHeader) {
			t.Fatalf("expected a generated id, got %q", seen)
		}
	})
}

func TestRecover(t *testing.T) {
	log := zerolog.Nop()
	h := Recover(&log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "internal error") {
		t.Fatalf("expected a JSON 500, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestRequestLogUsesRoutePattern(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)
	r := chi.NewRouter()
	r.Use(RequestLog(&log))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	out := buf.String()
	if !strings.Contains(out, `"route":"/items/{id}"`) || !strings.Contains(out, `"status":418`) {
		t.Fatalf("unexpected log line %s", out)
	}
}

func TestTimeout(t *testing.T) {
	var deadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !deadline {
		t.Fatal("expected a request deadline")
	}

	called := false
	Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, d := r.Context().Deadline()
		called = !d
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	if !called {
		t.Fatal("zero timeout should leave the context untouched")
	}
}
