package notifier

import (
	"context"
	"log/slog"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/usecase/commands"
)

// LogNotifier renders the email and logs it instead of sending. Used when no
// mail provider is configured.
type LogNotifier struct {
	renderer *TemplateRenderer
	logger   *slog.Logger
}

func NewLogNotifier(renderer *TemplateRenderer, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{renderer: renderer, logger: logger}
}

func (l *LogNotifier) NotifyIssued(ctx context.Context, n commands.Notice) error {
	msg, err := l.renderer.Render(n)
	if err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "coupon email (not sent)",
		"to", coupon.RedactEmail(msg.To),
		"subject", msg.Subject,
		"code", n.Record.Code().String(),
		"redemption_url", n.RedemptionURL,
	)
	return nil
}
