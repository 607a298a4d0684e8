package commands

import (
	"context"

	"coupon-ledger/internal/domain/coupon"
)

// RowIndex addresses one ledger row. Backends choose the numbering; callers
// only pass back what the ledger handed out.
type RowIndex int64

// Ledger is the tabular store holding one row per issued coupon.
// Lookups that find nothing return an infra.KindNotFound repository error;
// appending an existing code returns infra.KindDuplicateKey.
type Ledger interface {
	Append(ctx context.Context, rec *coupon.Record) (RowIndex, error)
	FindByCode(ctx context.Context, code coupon.Code) (RowIndex, error)
	Get(ctx context.Context, row RowIndex) (*coupon.Record, error)
	ReadField(ctx context.Context, row RowIndex, field coupon.Field) (string, error)
	WriteField(ctx context.Context, row RowIndex, field coupon.Field, value string) error
	// CompareAndSwap writes next only if the current value equals expected,
	// ignoring case and surrounding spaces. swapped is false when another
	// writer got there first.
	CompareAndSwap(ctx context.Context, row RowIndex, field coupon.Field, expected, next string) (swapped bool, err error)
}

// Locker serializes work on a key across goroutines and, depending on the
// backend, across instances.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Notice struct {
	Record        *coupon.Record
	RedemptionURL string
	ImageURL      string
}

type Notifier interface {
	NotifyIssued(ctx context.Context, n Notice) error
}

// Redemption outcomes reported to Metrics.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type Metrics interface {
	CouponIssued(attempts int)
	NotificationFailed()
	Redemption(outcome string)
}

type NopMetrics struct{}

func (NopMetrics) CouponIssued(int) {}
func (NopMetrics) NotificationFailed() {}
func (NopMetrics) Redemption(string) {}
