package posts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, viewer models.Session, kind models.PostKind, page int) (models.Collection[models.Post], error) {
	args := m.Called(ctx, viewer, kind, page)
	return args.Get(0).(models.Collection[models.Post]), args.Error(1)
}

func (m *MockService) LoadMore(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error) {
	args := m.Called(ctx, viewer, kind)
	return args.Get(0).(models.Collection[models.Post]), args.Error(1)
}

func (m *MockService) Refresh(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error) {
	args := m.Called(ctx, viewer, kind)
	return args.Get(0).(models.Collection[models.Post]), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, viewer models.Session, id string) (models.Post, bool, error) {
	args := m.Called(ctx, viewer, id)
	return args.Get(0).(models.Post), args.Bool(1), args.Error(2)
}

func (m *MockService) ToggleLike(ctx context.Context, viewer models.Session, id string) (models.LikeResult, error) {
	args := m.Called(ctx, viewer, id)
	return args.Get(0).(models.LikeResult), args.Error(1)
}

func (m *MockService) Liked(viewer models.Session, id string) bool {
	return m.Called(viewer, id).Bool(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var member = models.Session{UserID: "u1", Authenticated: true, Role: models.RoleUser, Token: "tok"}

func newRequest(method, url, id string, viewer models.Session) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("id", id)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middlewarectx.WithSession(ctx, viewer))
}

func hades() models.Post {
	return models.Post{ID: "p1", Title: "Hades II", Likes: 41, Body: models.Review{GameTitle: "Hades II", Score: 9}}
}

func TestListHandler(t *testing.T) {
	col := models.Collection[models.Post]{Items: []models.Post{hades()}}

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "лента обзоров",
			url:  "/posts?type=review",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, member, models.KindReview, 0).Return(col, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"type":"review"`,
		},
		{
			name: "перезагрузка общей ленты",
			url:  "/posts?refresh=true",
			setupMock: func(m *MockService) {
				m.On("Refresh", mock.Anything, member, models.PostKind("")).Return(col, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"gameTitle":"Hades II"`,
		},
		{
			name: "неизвестный тип",
			url:  "/posts?type=vlog",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, member, models.PostKind("vlog"), 0).
					Return(models.Collection[models.Post]{}, apperr.Validation("unknown post type %q", "vlog")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `unknown post type`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			NewList(newNoopLogger(), svc).ServeHTTP(w, newRequest(http.MethodGet, tt.url, "", member))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestReadHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", mock.Anything, member, "p1").Return(hades(), true, nil).Once()
	svc.On("Liked", member, "p1").Return(true).Once()

	w := httptest.NewRecorder()
	NewRead(newNoopLogger(), svc).ServeHTTP(w, newRequest(http.MethodGet, "/posts/p1", "p1", member))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"liked":true`)
	assert.Contains(t, w.Body.String(), `"score":9`)
}

func TestReadHandler_NotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", mock.Anything, member, "p9").Return(models.Post{}, false, nil).Once()

	w := httptest.NewRecorder()
	NewRead(newNoopLogger(), svc).ServeHTTP(w, newRequest(http.MethodGet, "/posts/p9", "p9", member))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeHandler(t *testing.T) {
	tests := []struct {
		name           string
		result         models.LikeResult
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"лайк", models.LikeResult{Liked: true, Likes: 42}, nil, http.StatusOK, `{"status":"OK","data":{"liked":true,"likes":42}}`},
		{"сбой сети", models.LikeResult{}, fmt.Errorf("remoteapi: %w", apperr.ErrTransient), http.StatusBadGateway, `{"status":"Error","error":"something went wrong, please retry"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ToggleLike", mock.Anything, member, "p1").Return(tt.result, tt.err).Once()

			w := httptest.NewRecorder()
			NewLike(newNoopLogger(), svc).ServeHTTP(w, newRequest(http.MethodPost, "/posts/p1/like", "p1", member))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
