package components

import (
	"coupon-ledger/internal/handler"
	"coupon-ledger/internal/handler/api"
	"coupon-ledger/internal/handler/dto/request"
	"coupon-ledger/internal/handler/middleware"
	"coupon-ledger/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		fx.Annotate(
			func() request.WixNormalizer { return request.WixNormalizer{} },
			fx.As(new(request.PayloadNormalizer)),
		),
		api.NewCouponHandler,
	),
	fx.Invoke(NewRouter),
)

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	metrics *middleware.MetricsBuilder,
	gatherer prometheus.Gatherer,
	couponHandler *api.CouponHandler,
) {
	handler.NewRouter(engine, handler.RouterDeps{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		Gatherer:      gatherer,
		CouponHandler: couponHandler,
	})
}
