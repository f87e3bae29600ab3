package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/gamefolio/internal/config"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

func newNoopLoggerLimit() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRateLimit(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(s models.Session) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		return req.WithContext(WithSession(req.Context(), s))
	}
	alice := models.Session{UserID: "alice", Authenticated: true, Role: models.RoleUser}
	bob := models.Session{UserID: "bob", Authenticated: true, Role: models.RoleUser}

	t.Run("blocks requests exceeding the viewer's limit", func(t *testing.T) {
		limiter := NewLimiter(config.RateLimit{RPS: 0.001, Burst: 2})
		handler := RateLimit(limiter, newNoopLoggerLimit())(testHandler)

		for range 2 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, request(alice))
			assert.Equal(t, http.StatusOK, w.Code)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(alice))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "too many requests")
	})

	t.Run("viewers do not share a limit", func(t *testing.T) {
		limiter := NewLimiter(config.RateLimit{RPS: 0.001, Burst: 1})
		handler := RateLimit(limiter, newNoopLoggerLimit())(testHandler)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(alice))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, request(bob))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit_GuestsLimitedByAddress(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limiter := NewLimiter(config.RateLimit{RPS: 0.001, Burst: 1})
	handler := RateLimit(limiter, newNoopLoggerLimit())(testHandler)

	guest := func(clientID, addr string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		s := models.GuestSession()
		s.ClientID = clientID
		return req.WithContext(WithSession(req.Context(), s))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, guest("client-a", "203.0.113.7:41000"))
	assert.Equal(t, http.StatusOK, w.Code)

	// новый X-Client-ID с того же адреса не дает нового лимита
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, guest("client-b", "203.0.113.7:41001"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, guest("client-a", "198.51.100.2:5000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiter_PrunesIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(config.RateLimit{RPS: 1, Burst: 1})
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("guest:a"))
	now = now.Add(limiterIdleTTL + 2*time.Minute)
	assert.True(t, l.Allow("guest:b"))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "guest:a")
	assert.Contains(t, l.visitors, "guest:b")
}
