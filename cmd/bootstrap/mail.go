package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"coupon-ledger/internal/infra/notifier"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"

	"go.uber.org/fx"
)

var MailModule = fx.Module("mail",
	fx.Provide(
		NewTemplateRenderer,
		NewNotifier,
	),
)

func NewTemplateRenderer(cfg config.Config) (*notifier.TemplateRenderer, error) {
	return notifier.NewTemplateRenderer(cfg.Coupon.BrandName)
}

func NewNotifier(cfg config.Config, renderer *notifier.TemplateRenderer, logger *slog.Logger) (commands.Notifier, error) {
	switch cfg.Mail.Provider {
	case config.MailProviderSES:
		client, err := notifier.NewSESClient(context.Background(), cfg.Mail)
		if err != nil {
			return nil, err
		}
		return notifier.NewSESNotifier(client, renderer, cfg.Mail.FromName, cfg.Mail.From, logger), nil
	case config.MailProviderLog:
		return notifier.NewLogNotifier(renderer, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}
