//go:build unit

package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	nethttptest "net/http/httptest"
	"strings"
	"testing"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/handler"
	"coupon-ledger/internal/handler/api"
	resdto "coupon-ledger/internal/handler/dto/response"
	"coupon-ledger/internal/handler/middleware"
	"coupon-ledger/internal/infra/lock"
	"coupon-ledger/internal/infra/metrics"
	"coupon-ledger/internal/infra/notifier"
	"coupon-ledger/internal/infra/qrcode"
	"coupon-ledger/internal/infra/repository"
	"coupon-ledger/internal/pkg/clock"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/internal/usecase/queries"
	"coupon-ledger/tests/common/builder"
	"coupon-ledger/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	router *gin.Engine
	ledger *repository.MemoryLedger
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewTestConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := repository.NewMemoryLedger(logger)
	links := coupon.NewLinks(cfg.Coupon.PublicBaseURL)
	reg := metrics.NewRegistry()
	couponMetrics := metrics.NewCouponMetrics(reg)

	gen, err := coupon.NewUUIDCodeGenerator(cfg.Coupon.CodeLength)
	require.NoError(t, err)
	renderer, err := notifier.NewTemplateRenderer(cfg.Coupon.BrandName)
	require.NoError(t, err)

	issuance := commands.NewIssuanceUseCase(ledger, gen, notifier.NewLogNotifier(renderer, logger), links,
		couponMetrics, clock.NewMockClock(builder.FixedNow), commands.IssuanceOptions{
			MaxAttempts: cfg.Coupon.MaxIssueAttempts,
			DateLayout:  cfg.Coupon.DateLayout,
		})
	redemption := commands.NewRedemptionUseCase(ledger, lock.NewLocalLocker(), couponMetrics)
	q := queries.NewCouponQueries(ledger, qrcode.NewRenderer(128), links)

	engine := gin.New()
	handler.NewRouter(engine, handler.RouterDeps{
		Config:        cfg,
		Logger:        middleware.NewLogger(cfg.Log),
		Metrics:       middleware.NewMetricsBuilder(reg),
		Gatherer:      reg,
		CouponHandler: api.NewCouponHandler(issuance, redemption, q, nil),
	})
	return &app{router: engine, ledger: ledger}
}

func TestAnaPurchaseScenario(t *testing.T) {
	a := newApp(t)

	w := httptest.PerformRequest(t, a.router, http.MethodPost, "/webhook", builder.NewCouponBuilder().BuildWebhookPayload())
	var issued resdto.IssueResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &issued)
	require.Len(t, issued.Code, 8)
	assert.True(t, issued.Notified)

	require.Equal(t, 1, a.ledger.Len())
	rec, err := a.ledger.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "ana@example.com", "Cena 2x1", issued.Code, "250.00", "-", "2024-05-01 10:00:00", "NO"}, rec.Row())

	w = httptest.PerformRequest(t, a.router, http.MethodPost, "/validar", map[string]string{"codigo": issued.Code})
	httptest.AssertStatusBody(t, w, http.StatusOK, resdto.StatusValid, "Código válido y marcado como canjeado")

	rec, err = a.ledger.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rec.IsRedeemed())

	w = httptest.PerformRequest(t, a.router, http.MethodPost, "/api/coupons/redeem", map[string]string{"code": strings.ToLower(issued.Code)})
	httptest.AssertStatusBody(t, w, http.StatusForbidden, resdto.StatusInvalid, "Este código ya fue canjeado")

	w = httptest.PerformRequest(t, a.router, http.MethodGet, "/api/coupons/"+issued.Code, nil)
	var view resdto.CouponResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &view)
	assert.True(t, view.Redeemed)
	assert.Equal(t, "http://localhost:8889/validar?codigo="+issued.Code, view.RedemptionURL)
	assert.Equal(t, "a***@example.com", view.BuyerEmail)
	assert.NotContains(t, w.Body.String(), "ana@example.com")

	w = httptest.PerformRequest(t, a.router, http.MethodGet, "/api/coupons/"+issued.Code+"/qr.png", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
}

func TestRedeemEdgeCases(t *testing.T) {
	a := newApp(t)

	w := httptest.PerformRequest(t, a.router, http.MethodPost, "/validar", map[string]string{"codigo": "DOESNOTEXIST"})
	httptest.AssertStatusBody(t, w, http.StatusNotFound, resdto.StatusError, "Código no encontrado")

	w = httptest.PerformRequest(t, a.router, http.MethodPost, "/validar", map[string]string{"codigo": ""})
	httptest.AssertStatusBody(t, w, http.StatusBadRequest, resdto.StatusError, "Código no enviado")

	w = httptest.PerformRawRequest(t, a.router, http.MethodPost, "/validar", "", "{not json")
	httptest.AssertStatusBody(t, w, http.StatusBadRequest, resdto.StatusError, "Código no enviado")
}

func TestOpsRoutes(t *testing.T) {
	a := newApp(t)

	w := httptest.PerformRequest(t, a.router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	httptest.PerformRequest(t, a.router, http.MethodPost, "/validar", map[string]string{"codigo": "NOPE"})

	w = httptest.PerformRequest(t, a.router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `coupon_redemptions_total{outcome="not_found"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/validar",status_code="404"} 1`)

	for _, path := range []string{"/web", "/validar?codigo=AB12CD34"} {
		w = httptest.PerformRequest(t, a.router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), `fetch("/validar"`)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	a := newApp(t)

	req := nethttptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "pos-terminal-7")
	w := nethttptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, "pos-terminal-7", w.Header().Get("X-Request-ID"))
}
