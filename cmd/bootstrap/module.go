package bootstrap

import (
	"coupon-ledger/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	LedgerModule,
	LockModule,
	MailModule,
	MetricsModule,
	components.UseCaseModule,
	components.HandlerModule,
)
