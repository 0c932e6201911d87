package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
)

func sessionRequest(method, url string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	return req.WithContext(WithCartSession(req.Context(), "6f1c9a52-5d0e-4f4b-8c1e-0f0a4d2b9e11"))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"checkout", http.MethodPost, "/api/v1/checkout", criticalIdempotencyTTL, true},
		{"add item", http.MethodPost, "/api/v1/cart/items", defaultIdempotencyTTL, true},
		{"checkout success", http.MethodPost, "/api/v1/checkout/success", defaultIdempotencyTTL, true},
		{"absolute update", http.MethodPatch, "/api/v1/cart/items/{id}", 0, false},
		{"read", http.MethodGet, "/api/v1/cart", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	mw := Idempotency(NewMemoryIdempotencyStore(), nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":1}`))
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("handler executed %d times, expected 2", calls)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	mw := Idempotency(NewMemoryIdempotencyStore(), nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":1}`))
	req.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":1}`))
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay status 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	mw := Idempotency(NewMemoryIdempotencyStore(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":1}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":2}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestMemoryIdempotencyStoreExpires(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	if ok, _ := store.SetNX(ctx, "k", "v", time.Minute); !ok {
		t.Fatalf("expected first write to win")
	}
	if ok, _ := store.SetNX(ctx, "k", "other", time.Minute); ok {
		t.Fatalf("expected duplicate write to lose")
	}
	if v, err := store.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("unexpected value %q err=%v", v, err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !isMiss(err) {
		t.Fatalf("expected expired record to miss, got %v", err)
	}
	if ok, _ := store.SetNX(ctx, "k", "fresh", time.Minute); !ok {
		t.Fatalf("expected write after expiry to win")
	}
}

func TestIdempotencyMiddlewareRejectsConcurrentDuplicate(t *testing.T) {
	mw := Idempotency(NewMemoryIdempotencyStore(), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	newReq := func() *http.Request {
		req := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"id":1}`))
		req.Header.Set("Idempotency-Key", "inflight")
		return req
	}

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(first, newReq())
	}()
	<-started

	dup := httptest.NewRecorder()
	handler.ServeHTTP(dup, newReq())
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 for in-flight duplicate, got %d", dup.Code)
	}
	if !strings.Contains(dup.Body.String(), string(pkgerrors.CodeConflict)) {
		t.Fatalf("expected conflict code, got %s", dup.Body.String())
	}

	close(release)
	<-done
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, newReq())
	if replay.Code != http.StatusOK || strings.TrimSpace(replay.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored response after completion, got %d %s", replay.Code, replay.Body.String())
	}
	if calls.Load() != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls.Load())
	}
}

func TestIdempotencyMiddlewareReleasesKeyOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler func(calls int) http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(calls int) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					if calls == 1 {
						w.WriteHeader(http.StatusServiceUnavailable)
						return
					}
					w.WriteHeader(http.StatusOK)
				}
			},
		},
		{
			name: "panic",
			handler: func(calls int) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					if calls == 1 {
						panic("boom")
					}
					w.WriteHeader(http.StatusOK)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			handler := Recoverer(nil)(Idempotency(NewMemoryIdempotencyStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				tt.handler(calls)(w, r)
			})))

			for i := 0; i < 2; i++ {
				req := sessionRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
				req.Header.Set("Idempotency-Key", "flaky")
				handler.ServeHTTP(httptest.NewRecorder(), req)
			}
			if calls != 2 {
				t.Fatalf("expected retry after failure to run the handler again, ran %d times", calls)
			}
		})
	}
}

func TestIdempotencyMiddlewareLimitsBodySize(t *testing.T) {
	var calls int
	handler := Idempotency(NewMemoryIdempotencyStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	req := sessionRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(strings.Repeat("a", maxIdempotentBodyBytes+1)))
	req.Header.Set("Idempotency-Key", "big")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler should not run for an oversized body")
	}
}

func TestMemoryIdempotencyStoreSetAndDel(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()

	if ok, _ := store.SetNX(ctx, "k", "claim", time.Minute); !ok {
		t.Fatalf("expected claim to win")
	}
	if err := store.Set(ctx, "k", "final", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := store.Get(ctx, "k"); v != "final" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
	if err := store.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !isMiss(err) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
