// Package middlewarectx содержит HTTP middleware, которые определяют зрителя
// запроса и ограничивают частоту его запросов.
//
// Session читает JWT из заголовка Authorization и кладет в контекст
// models.Session. Запрос без заголовка обслуживается как гостевой,
// невалидный токен отклоняется с 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/jwt"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionKey ключ сессии зрителя в контексте.
	SessionKey Key = "session"

	// ClientIDHeader заголовок, которым клиент идентифицирует себя без входа.
	ClientIDHeader = "X-Client-ID"
)

// TokenParser разбирает bearer-токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Session возвращает middleware, который определяет зрителя запроса.
func Session(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"

			session := models.GuestSession()
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				if !strings.HasPrefix(authHeader, "Bearer ") {
					log.Warn("invalid authorization header", sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("missing or invalid authorization header"))
					return
				}
				tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
				claims, err := parser.ParseToken(tokenStr)
				if err != nil {
					log.Warn("invalid or expired token", sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("invalid or expired token"))
					return
				}
				session = claims.Session(tokenStr)
			}
			session.ClientID = clientID(r)

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom возвращает сессию из контекста. Без нее зритель считается гостем.
func SessionFrom(ctx context.Context) models.Session {
	if s, ok := ctx.Value(SessionKey).(models.Session); ok {
		return s
	}
	return models.GuestSession()
}

// WithSession кладет сессию в контекст.
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
		return id
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
