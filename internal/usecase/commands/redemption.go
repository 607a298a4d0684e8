package commands

import (
	"context"
	"log/slog"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/pkg/errs"
)

type RedeemResult struct {
	Code coupon.Code
	Row  RowIndex
}

type RedemptionCommands interface {
	// Redeem flips the coupon from NO to SI exactly once. Later attempts,
	// concurrent or not, get errs.ErrAlreadyRedeemed.
	Redeem(ctx context.Context, rawCode string) (*RedeemResult, error)
}

type redemptionUseCaseImpl struct {
	ledger  Ledger
	locker  Locker
	metrics Metrics
}

func NewRedemptionUseCase(ledger Ledger, locker Locker, metrics Metrics) RedemptionCommands {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &redemptionUseCaseImpl{ledger: ledger, locker: locker, metrics: metrics}
}

func (uc *redemptionUseCaseImpl) Redeem(ctx context.Context, rawCode string) (*RedeemResult, error) {
	code, err := coupon.NewCode(rawCode)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	res, err := uc.redeem(ctx, code)
	uc.metrics.Redemption(outcomeOf(err))

	switch {
	case err == nil:
		slog.InfoContext(ctx, "coupon redeemed", "code", code.String(), "row", int64(res.Row))
	case errs.Is(err, errs.ErrAlreadyRedeemed), errs.Is(err, errs.ErrCouponNotFound):
		slog.InfoContext(ctx, "coupon rejected", "code", code.String(), "reason", err.Error())
	default:
		slog.ErrorContext(ctx, "coupon redemption failed", "code", code.String(), "error", err)
	}
	return res, err
}

func (uc *redemptionUseCaseImpl) redeem(ctx context.Context, code coupon.Code) (*RedeemResult, error) {
	unlock, err := uc.locker.Lock(ctx, "coupon:"+code.String())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}
	defer unlock()

	row, err := uc.ledger.FindByCode(ctx, code)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrCouponNotFound)
		}
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}

	current, err := uc.ledger.ReadField(ctx, row, coupon.FieldRedeemed)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}
	if coupon.ParseRedeemedFlag(current) == coupon.Redeemed {
		return nil, errs.ErrAlreadyRedeemed
	}

	// blank or padded cells count as NO; swap against what was actually stored
	swapped, err := uc.ledger.CompareAndSwap(ctx, row, coupon.FieldRedeemed,
		current, coupon.Redeemed.String())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}
	if !swapped {
		return nil, errs.ErrAlreadyRedeemed
	}

	return &RedeemResult{Code: code, Row: row}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeValid
	case errs.Is(err, errs.ErrAlreadyRedeemed):
		return OutcomeInvalid
	case errs.Is(err, errs.ErrCouponNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
