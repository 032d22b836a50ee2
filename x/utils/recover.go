package utils

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ smallet.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Checker) (_ *smallet.CheckResult, err error) {
	defer recoverAndLog(ctx, &err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Deliverer) (_ *smallet.DeliverResult, err error) {
	defer recoverAndLog(ctx, &err)
	return next.Deliver(ctx, store, tx)
}

func recoverAndLog(ctx smallet.Context, err *error) {
	if r := recover(); r != nil {
		*err = errors.Wrapf(errors.ErrPanic, "%v", r)
		smallet.GetLogger(ctx).Error("recovered from panic", "err", *err)
	}
}
