package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedash/internal/config"
	"invoicedash/internal/domain"
	"invoicedash/internal/events/noop"
	"invoicedash/internal/extraction"
	extractmock "invoicedash/internal/extraction/mock"
	"invoicedash/internal/handler"
	"invoicedash/internal/observability/metrics"
	"invoicedash/internal/router"
	"invoicedash/internal/service"
	"invoicedash/internal/storage/memory"
	"invoicedash/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newServer(t *testing.T) (*gin.Engine, *store.InvoiceStore) {
	t.Helper()
	cfg := &config.Config{
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Intake: config.IntakeConfig{DefaultUser: "Current User"},
	}
	log := zerolog.Nop()
	m := metrics.New()

	repo := store.New(store.WithMetricsHook(m.ObserveDashboard))
	provider := extractmock.NewProvider(extractmock.Options{Seed: 7})
	for _, inv := range provider.SeedInvoices(6, repo.Thresholds(), "AI Engine v2.1") {
		_, err := repo.Add(inv)
		require.NoError(t, err)
	}

	resilient := extraction.NewResilientProvider(provider, extraction.Policy{MaxAttempts: 2}, log, m.RecordRetry)
	publisher := metrics.NewCountingPublisher(noop.NewPublisher(log), m)
	storage := memory.New("docs")

	invoices := service.NewInvoiceService(repo, publisher, log)
	intake := service.NewIntakeService(repo, resilient, storage, publisher, service.IntakeConfig{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go intake.Run(ctx)

	r := router.Setup(cfg, log, m, router.Handlers{
		Invoice:   handler.NewInvoiceHandler(invoices, intake),
		Upload:    handler.NewUploadHandler(intake),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(repo)),
		Settings:  handler.NewSettingsHandler(service.NewSettingsService(repo, log)),
		Health:    handler.NewHealthHandler(),
	})
	return r, repo
}

func do(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestRouter_ReviewFlow(t *testing.T) {
	r, repo := newServer(t)

	w, _ := do(r, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := repo.Add(domain.Invoice{
		ID:                "inv-review",
		Status:            domain.StatusReview,
		Stage:             domain.StageReview,
		Vendor:            "Initech",
		OverallConfidence: 55,
		Priority:          domain.PriorityHigh,
	})
	require.NoError(t, err)
	id := "inv-review"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+id+"/approve", http.NoBody)
	req.Header.Set("X-User-Name", "Sarah Johnson")
	w, env := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	inv, ok := repo.Get(id)
	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, inv.Status)
	last := inv.AuditTrail[len(inv.AuditTrail)-1]
	assert.Equal(t, domain.AuditApproved, last.Action)
	assert.Equal(t, "Sarah Johnson", last.User)

	w, env = do(r, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ghost/approve", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVOICE_NOT_FOUND", env.Error.Code)
}

func TestRouter_UploadAndExport(t *testing.T) {
	r, repo := newServer(t)
	before := len(repo.List())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="Globex_april.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.7 test"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := do(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var inv domain.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	assert.Equal(t, "Globex", inv.Vendor)
	assert.Equal(t, "Current User", inv.AuditTrail[0].User)
	assert.Len(t, repo.List(), before+1)

	w, _ = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+inv.ID+"/document", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+inv.ID+"/export?format=csv", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Vendor Name,Globex")

	body, _ := json.Marshal(map[string]interface{}{"ids": []string{inv.ID}, "format": "xlsx"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/invoices/export", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w, _ = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestRouter_DashboardAndMetrics(t *testing.T) {
	r, _ := newServer(t)

	w, env := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	var dm domain.DashboardMetrics
	require.NoError(t, json.Unmarshal(env.Data, &dm))
	assert.Equal(t, 6, dm.TotalInvoices)

	body := bytes.NewReader([]byte(`{"auto_approve": 40, "review": 60}`))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/thresholds", body)
	req.Header.Set("Content-Type", "application/json")
	w, env = do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_THRESHOLDS", env.Error.Code)

	w, _ = do(r, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `invoicedash_dashboard_invoices 6`)
	assert.Contains(t, w.Body.String(), `invoicedash_http_requests_total{method="GET",route="/api/v1/dashboard/metrics",status="200"} 1`)
}
