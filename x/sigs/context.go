package sigs

import (
	"context"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx smallet.Context, signers []smallet.Condition) smallet.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticate) GetConditions(ctx smallet.Context) []smallet.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]smallet.Condition)
	return val
}

// HasAddress returns true if the address is one of the signers of the
// current Context.
func (a Authenticate) HasAddress(ctx smallet.Context, addr smallet.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
