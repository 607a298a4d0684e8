package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"coupon-ledger/internal/infra/repository"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/internal/usecase/queries"

	"go.uber.org/fx"
)

var LedgerModule = fx.Module("ledger",
	fx.Provide(
		NewLedger,
		func(l commands.Ledger) queries.CouponReadStore {
			return l
		},
	),
)

// NewLedger builds the backend selected by LEDGER_BACKEND.
func NewLedger(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (commands.Ledger, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres:
		pool, err := NewDB(lc, cfg)
		if err != nil {
			return nil, err
		}
		ledger := repository.NewPostgresLedger(pool, logger)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return ledger.EnsureSchema(ctx)
			},
		})
		return ledger, nil

	case config.LedgerBackendSheets:
		svc, err := repository.NewSheetsService(context.Background(), cfg.Sheets.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		return repository.NewSheetsLedger(svc, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, cfg.Sheets.HasHeader, logger), nil

	case config.LedgerBackendMemory:
		logger.Warn("using in-memory ledger; coupons are lost on restart")
		return repository.NewMemoryLedger(logger), nil

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
