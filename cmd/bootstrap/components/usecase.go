package components

import (
	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra/qrcode"
	"coupon-ledger/internal/pkg/clock"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/internal/usecase/queries"

	"go.uber.org/fx"
)

const qrSize = 256

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		NewCodeGenerator,
		fx.As(new(coupon.CodeGenerator)),
	),
	func(cfg config.Config) coupon.Links {
		return coupon.NewLinks(cfg.Coupon.PublicBaseURL)
	},
	func(cfg config.Config) commands.IssuanceOptions {
		return commands.IssuanceOptions{
			MaxAttempts: cfg.Coupon.MaxIssueAttempts,
			DateLayout:  cfg.Coupon.DateLayout,
		}
	},
	fx.Annotate(
		func() *qrcode.Renderer { return qrcode.NewRenderer(qrSize) },
		fx.As(new(queries.ImageRenderer)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewIssuanceUseCase,
		commands.NewRedemptionUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewCouponQueries,
	),
)

func NewCodeGenerator(cfg config.Config) (*coupon.UUIDCodeGenerator, error) {
	return coupon.NewUUIDCodeGenerator(cfg.Coupon.CodeLength)
}
