package bootstrap

import (
	"coupon-ledger/internal/handler/middleware"
	"coupon-ledger/internal/infra/metrics"
	"coupon-ledger/internal/usecase/commands"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var MetricsModule = fx.Module("metrics",
	fx.Provide(
		metrics.NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
		fx.Annotate(
			metrics.NewCouponMetrics,
			fx.As(new(commands.Metrics)),
		),
		middleware.NewMetricsBuilder,
	),
)
