package membership

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gamefolio/internal/access"
	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Tier(ctx context.Context, session models.Session) access.Decision {
	return m.Called(ctx, session).Get(0).(access.Decision)
}

func (m *MockResolver) CreateOrder(ctx context.Context, session models.Session, plan models.Plan) (models.Order, error) {
	args := m.Called(ctx, session, plan)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockResolver) CompleteUpgrade(ctx context.Context, session models.Session, confirmation models.Confirmation) (models.EliteStatus, error) {
	args := m.Called(ctx, session, confirmation)
	return args.Get(0).(models.EliteStatus), args.Error(1)
}

func (m *MockResolver) EnableDemo(ctx context.Context, session models.Session, plan models.Plan) (models.EliteStatus, error) {
	args := m.Called(ctx, session, plan)
	return args.Get(0).(models.EliteStatus), args.Error(1)
}

func (m *MockResolver) DisableDemo(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var member = models.Session{UserID: "u1", Authenticated: true, Role: models.RoleUser, Token: "tok"}

func newRequest(method, url, body string, viewer models.Session) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	return req.WithContext(middlewarectx.WithSession(req.Context(), viewer))
}

func TestMeHandler(t *testing.T) {
	tests := []struct {
		name         string
		viewer       models.Session
		decision     access.Decision
		expectedBody string
	}{
		{
			name:         "гость",
			viewer:       models.GuestSession(),
			decision:     access.Decision{Tier: models.TierGuest},
			expectedBody: `"tier":"guest"`,
		},
		{
			name:   "элитный зритель видит все поля",
			viewer: member,
			decision: access.Decision{Tier: models.TierElite, Status: models.EliteStatus{
				HasEliteAccess: true, SubscriptionType: models.SubscriptionViewer, DaysRemaining: 20,
			}},
			expectedBody: `"contact":true`,
		},
		{
			name:         "без подписки закрытые поля недоступны",
			viewer:       member,
			decision:     access.Decision{Tier: models.TierAuthenticated},
			expectedBody: `"resume":false`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			resolver.On("Tier", mock.Anything, tt.viewer).Return(tt.decision).Once()

			w := httptest.NewRecorder()
			NewMe(resolver).ServeHTTP(w, newRequest(http.MethodGet, "/access/me", "", tt.viewer))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			resolver.AssertExpectations(t)
		})
	}
}

func TestOrderHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockResolver)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "заказ создан",
			body: `{"plan":"creator"}`,
			setupMock: func(m *MockResolver) {
				m.On("CreateOrder", mock.Anything, member, models.PlanCreator).
					Return(models.Order{ID: "ord-1", Plan: models.PlanCreator, Amount: 49900, Currency: "INR"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"orderId":"ord-1"`,
		},
		{
			name:           "неизвестный план",
			body:           `{"plan":"platinum"}`,
			setupMock:      func(_ *MockResolver) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Plan must be one of [viewer creator]`,
		},
		{
			name:           "некорректный JSON",
			body:           `plan=viewer`,
			setupMock:      func(_ *MockResolver) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name: "платежный API отказал",
			body: `{"plan":"viewer"}`,
			setupMock: func(m *MockResolver) {
				m.On("CreateOrder", mock.Anything, member, models.PlanViewer).
					Return(models.Order{}, apperr.Upgrade(errors.New("gateway down"))).Once()
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `upgrade failed, please try again`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			tt.setupMock(resolver)

			w := httptest.NewRecorder()
			NewOrder(newNoopLogger(), resolver).ServeHTTP(w, newRequest(http.MethodPost, "/access/orders", tt.body, member))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			resolver.AssertExpectations(t)
		})
	}
}

func TestUpgradeHandler(t *testing.T) {
	confirmation := models.Confirmation{Success: true, OrderID: "ord-1", PaymentID: "pay-1", Signature: "sig"}
	body := `{"orderId":"ord-1","paymentId":"pay-1","signature":"sig"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockResolver)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "апгрейд подтвержден",
			body: body,
			setupMock: func(m *MockResolver) {
				m.On("CompleteUpgrade", mock.Anything, member, confirmation).
					Return(models.EliteStatus{HasEliteAccess: true, SubscriptionType: models.SubscriptionCreator, DaysRemaining: 30}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"hasEliteAccess":true`,
		},
		{
			name:           "нет подписи",
			body:           `{"orderId":"ord-1","paymentId":"pay-1"}`,
			setupMock:      func(_ *MockResolver) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Signature is a required field`,
		},
		{
			name: "проверка оплаты не прошла",
			body: body,
			setupMock: func(m *MockResolver) {
				m.On("CompleteUpgrade", mock.Anything, member, confirmation).
					Return(models.EliteStatus{}, fmt.Errorf("access.Resolver.CompleteUpgrade: %w", apperr.Upgrade(errors.New("bad signature")))).Once()
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `{"status":"Error","error":"upgrade failed, please try again"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			tt.setupMock(resolver)

			w := httptest.NewRecorder()
			NewUpgrade(newNoopLogger(), resolver).ServeHTTP(w, newRequest(http.MethodPost, "/access/upgrade", tt.body, member))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			resolver.AssertExpectations(t)
		})
	}
}

func TestDemoHandler(t *testing.T) {
	t.Run("включение", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("EnableDemo", mock.Anything, member, models.PlanViewer).
			Return(models.EliteStatus{HasEliteAccess: true, SubscriptionType: models.SubscriptionViewer, DaysRemaining: 30}, nil).Once()

		w := httptest.NewRecorder()
		NewDemo(newNoopLogger(), resolver).Enable(w, newRequest(http.MethodPost, "/access/demo", `{"plan":"viewer"}`, member))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"daysRemaining":30`)
	})

	t.Run("demo-режим выключен", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("EnableDemo", mock.Anything, member, models.PlanViewer).
			Return(models.EliteStatus{}, apperr.Upgrade(errors.New("demo mode is disabled"))).Once()

		w := httptest.NewRecorder()
		NewDemo(newNoopLogger(), resolver).Enable(w, newRequest(http.MethodPost, "/access/demo", `{"plan":"viewer"}`, member))

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("выключение", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("DisableDemo", mock.Anything, "u1").Return(nil).Once()

		w := httptest.NewRecorder()
		NewDemo(newNoopLogger(), resolver).Disable(w, newRequest(http.MethodDelete, "/access/demo", "", member))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"demo":false}}`, w.Body.String())
	})

	t.Run("выключение гостем", func(t *testing.T) {
		resolver := new(MockResolver)

		w := httptest.NewRecorder()
		NewDemo(newNoopLogger(), resolver).Disable(w, newRequest(http.MethodDelete, "/access/demo", "", models.GuestSession()))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resolver.AssertNotCalled(t, "DisableDemo", mock.Anything, mock.Anything)
	})
}
