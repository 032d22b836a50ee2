/*
Package sigs provides the authentication middleware. It reads the signers
declared by a transaction and exposes them to the handlers through the
context.
*/
package sigs

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// Decorator adds the transaction signers to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ smallet.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which requires at least one signer to be present
func NewDecorator() Decorator {
	return Decorator{
		allowMissingSigs: false,
	}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check adds the signers before calling down the stack.
func (d Decorator) Check(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Checker) (*smallet.CheckResult, error) {
	ctx, err := d.authenticate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver adds the signers before calling down the stack.
func (d Decorator) Deliver(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Deliverer) (*smallet.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d Decorator) authenticate(ctx smallet.Context, tx smallet.Tx) (smallet.Context, error) {
	var signers []smallet.Condition
	if stx, ok := tx.(SignedTx); ok {
		signers = stx.GetSigners()
	}
	for i, s := range signers {
		if err := s.Validate(); err != nil {
			return nil, errors.Wrapf(err, "signer %d", i)
		}
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), nil
}
