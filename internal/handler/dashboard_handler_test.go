package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invoicedash/internal/domain"
	"invoicedash/internal/handler"
	"invoicedash/internal/service"
	"invoicedash/mocks"
)

func TestDashboardHandler_Metrics(t *testing.T) {
	svc := new(mocks.MockDashboardService)
	h := handler.NewDashboardHandler(svc)
	svc.On("Metrics", mock.Anything).Return(&domain.DashboardMetrics{TotalInvoices: 3, AverageConfidence: 66.67}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/dashboard/metrics", nil)
	h.Metrics(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(3), data["total_invoices"])
	assert.Equal(t, 66.67, data["average_confidence"])
}

func TestDashboardHandler_Metrics_InternalError(t *testing.T) {
	svc := new(mocks.MockDashboardService)
	h := handler.NewDashboardHandler(svc)
	svc.On("Metrics", mock.Anything).Return(nil, errors.New("boom"))

	c, w := newContext(http.MethodGet, "/api/v1/dashboard/metrics", nil)
	h.Metrics(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
}

func TestDashboardHandler_Analytics(t *testing.T) {
	svc := new(mocks.MockDashboardService)
	h := handler.NewDashboardHandler(svc)
	svc.On("Analytics", mock.Anything, service.DefaultAnalyticsDays).Return(&domain.Analytics{}, nil)
	svc.On("Analytics", mock.Anything, 30).Return(&domain.Analytics{}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/dashboard/analytics", nil)
	h.Analytics(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/dashboard/analytics?days=30", nil)
	h.Analytics(c)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestDashboardHandler_Analytics_InvalidDays(t *testing.T) {
	svc := new(mocks.MockDashboardService)
	h := handler.NewDashboardHandler(svc)

	for _, q := range []string{"abc", "0", "-3", "1000"} {
		c, w := newContext(http.MethodGet, "/api/v1/dashboard/analytics?days="+q, nil)
		h.Analytics(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, "days=%s", q)
	}
	svc.AssertNotCalled(t, "Analytics", mock.Anything, mock.Anything)
}

func TestSettingsHandler_Thresholds(t *testing.T) {
	svc := new(mocks.MockSettingsService)
	h := handler.NewSettingsHandler(svc)
	current := domain.DefaultThresholds()
	svc.On("Thresholds", mock.Anything).Return(&current, nil)

	c, w := newContext(http.MethodGet, "/api/v1/settings/thresholds", nil)
	h.GetThresholds(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(85), data["auto_approve"])
	assert.Equal(t, float64(60), data["review"])
}

func TestSettingsHandler_UpdateThresholds(t *testing.T) {
	svc := new(mocks.MockSettingsService)
	h := handler.NewSettingsHandler(svc)
	want := domain.ConfidenceThresholds{AutoApprove: 90, Review: 0}
	svc.On("SetThresholds", mock.Anything, want, testActor).Return(&want, nil)

	c, w := newContext(http.MethodPut, "/api/v1/settings/thresholds", map[string]float64{"auto_approve": 90, "review": 0})
	h.UpdateThresholds(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSettingsHandler_UpdateThresholds_Invalid(t *testing.T) {
	svc := new(mocks.MockSettingsService)
	h := handler.NewSettingsHandler(svc)
	svc.On("SetThresholds", mock.Anything, domain.ConfidenceThresholds{AutoApprove: 50, Review: 70}, testActor).
		Return(nil, domain.ErrInvalidThresholds)

	c, w := newContext(http.MethodPut, "/api/v1/settings/thresholds", map[string]float64{"auto_approve": 50, "review": 70})
	h.UpdateThresholds(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_THRESHOLDS", decode(t, w).Error.Code)

	c, w = newContext(http.MethodPut, "/api/v1/settings/thresholds", map[string]float64{"auto_approve": 50})
	h.UpdateThresholds(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
}

func TestHealthHandler(t *testing.T) {
	ok := new(mocks.MockHealthChecker)
	ok.On("Name").Return("s3").Maybe()
	ok.On("Ping", mock.Anything).Return(nil)
	down := new(mocks.MockHealthChecker)
	down.On("Name").Return("nats")
	down.On("Ping", mock.Anything).Return(errors.New("nats connection is RECONNECTING"))

	c, w := newContext(http.MethodGet, "/healthz", nil)
	handler.NewHealthHandler(ok, down).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil)
	handler.NewHealthHandler(ok).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil)
	handler.NewHealthHandler(ok, down).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "RECONNECTING")
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvoiceNotFound, http.StatusNotFound},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrDuplicateInvoice, http.StatusConflict},
		{domain.ErrUploadFailed, http.StatusBadGateway},
		{&domain.NetworkError{Op: "extract", Err: errors.New("reset"), Temporary: true}, http.StatusServiceUnavailable},
		{&domain.NetworkError{Op: "extract", Err: errors.New("canceled")}, http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
