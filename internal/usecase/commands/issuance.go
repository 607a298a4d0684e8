package commands

import (
	"context"
	"log/slog"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/pkg/clock"
	"coupon-ledger/internal/pkg/errs"
)

var (
	ErrCodeGenerationFailed   = errs.New("coupon code generation failed")
	ErrIssueAttemptsExhausted = errs.New("no unique coupon code after max attempts")
	ErrNoRecipient            = errs.New("coupon has no buyer email")
)

type IssueResult struct {
	Record   *coupon.Record
	Row      RowIndex
	Notified bool
	Attempts int
}

type IssuanceCommands interface {
	Issue(ctx context.Context, p coupon.Purchase) (*IssueResult, error)
}

type IssuanceOptions struct {
	MaxAttempts int
	DateLayout  string
}

type issuanceUseCaseImpl struct {
	ledger   Ledger
	gen      coupon.CodeGenerator
	notifier Notifier
	links    coupon.Links
	metrics  Metrics
	clock    clock.Clock
	opts     IssuanceOptions
}

func NewIssuanceUseCase(
	ledger Ledger,
	gen coupon.CodeGenerator,
	notifier Notifier,
	links coupon.Links,
	metrics Metrics,
	clk clock.Clock,
	opts IssuanceOptions,
) IssuanceCommands {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.DateLayout == "" {
		opts.DateLayout = coupon.DefaultDateLayout
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &issuanceUseCaseImpl{
		ledger:   ledger,
		gen:      gen,
		notifier: notifier,
		links:    links,
		metrics:  metrics,
		clock:    clk,
		opts:     opts,
	}
}

// Issue appends a new coupon row and emails the buyer. The row is committed
// before delivery is attempted; a delivery failure, including a purchase
// without an email, is reported through IssueResult.Notified rather than as
// an error.
func (uc *issuanceUseCaseImpl) Issue(ctx context.Context, p coupon.Purchase) (*IssueResult, error) {
	rec, row, attempts, err := uc.appendWithFreshCode(ctx, p)
	if err != nil {
		return nil, err
	}
	uc.metrics.CouponIssued(attempts)

	slog.InfoContext(ctx, "coupon issued",
		"code", rec.Code().String(),
		"row", int64(row),
		"attempts", attempts,
	)

	notice := Notice{
		Record:        rec,
		RedemptionURL: uc.links.RedemptionURL(rec.Code()),
		ImageURL:      uc.links.ImageURL(rec.Code()),
	}

	notified := true
	if nerr := uc.notify(ctx, notice); nerr != nil {
		notified = false
		uc.metrics.NotificationFailed()
		slog.WarnContext(ctx, "coupon notification failed",
			"code", rec.Code().String(),
			"error", nerr,
		)
	}

	return &IssueResult{
		Record:   rec,
		Row:      row,
		Notified: notified,
		Attempts: attempts,
	}, nil
}

func (uc *issuanceUseCaseImpl) notify(ctx context.Context, n Notice) error {
	if n.Record.BuyerEmail() == "" {
		return ErrNoRecipient
	}
	return uc.notifier.NotifyIssued(ctx, n)
}

func (uc *issuanceUseCaseImpl) appendWithFreshCode(ctx context.Context, p coupon.Purchase) (*coupon.Record, RowIndex, int, error) {
	var (
		rec     *coupon.Record
		lastErr error
	)
	for attempt := 1; attempt <= uc.opts.MaxAttempts; attempt++ {
		code, err := uc.gen.Generate()
		if err != nil {
			return nil, 0, attempt, errs.Mark(errs.Wrap(err, ErrCodeGenerationFailed.Error()), errs.ErrUpstreamUnavailable)
		}

		if rec == nil {
			rec, err = coupon.NewRecord(code, p, uc.opts.DateLayout, uc.clock.Now())
			if err != nil {
				return nil, 0, attempt, errs.Mark(err, errs.ErrInvalidInput)
			}
		} else {
			rec = rec.WithCode(code)
		}

		row, err := uc.ledger.Append(ctx, rec)
		if err == nil {
			return rec, row, attempt, nil
		}
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, 0, attempt, errs.Mark(err, errs.ErrUpstreamUnavailable)
		}

		slog.WarnContext(ctx, "generated coupon code collided, retrying",
			"code", code.String(),
			"attempt", attempt,
		)
		lastErr = err
	}

	return nil, 0, uc.opts.MaxAttempts, errs.Mark(errs.Wrap(lastErr, ErrIssueAttemptsExhausted.Error()), errs.ErrDuplicateCode)
}
