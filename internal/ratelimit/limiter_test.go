package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idguardian/pkg/requestcontext"
)

func TestInMemoryStoreSlidingWindow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := store.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Another key is unaffected.
	result, err = store.Allow(ctx, "5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// The window slides: old entries expire.
	current = current.Add(61 * time.Second)
	result, err = store.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store down")
}

func limitedHandler(limiter *Limiter) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return Middleware(limiter, slog.New(slog.DiscardHandler))(next)
}

func doRequest(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareLimitsPerIP(t *testing.T) {
	handler := limitedHandler(NewLimiter(NewInMemoryStore(), 2, time.Minute))

	assert.Equal(t, http.StatusCreated, doRequest(handler, "1.2.3.4").Code)
	assert.Equal(t, http.StatusCreated, doRequest(handler, "1.2.3.4").Code)

	rec := doRequest(handler, "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusCreated, doRequest(handler, "5.6.7.8").Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	handler := limitedHandler(NewLimiter(failingStore{}, 1, time.Minute))

	assert.Equal(t, http.StatusCreated, doRequest(handler, "1.2.3.4").Code)
	assert.Equal(t, http.StatusCreated, doRequest(handler, "1.2.3.4").Code)
}
