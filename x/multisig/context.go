package multisig

import (
	"bytes"
	"context"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/x"
)

type contextKey int // local to the multisig module

const (
	contextKeyAuthority contextKey = iota
	contextKeyEvents
)

// Authority is the permission to act as a wallet or as one of its
// sub-accounts. It can be created only by this package, when a wallet
// transaction is executed or an owner invokes an instruction. The zero
// value grants nothing.
type Authority struct {
	walletID []byte
	identity smallet.Address
	// governs is set when the authority was granted by a wallet
	// transaction executed as the wallet itself.
	governs bool
}

// Governs returns true if the authority allows to change the configuration
// of the wallet with given ID.
func (a Authority) Governs(walletID []byte) bool {
	return a.governs && len(a.walletID) != 0 && bytes.Equal(a.walletID, walletID)
}

// Identity returns the address the authority acts as.
func (a Authority) Identity() smallet.Address {
	return a.identity
}

func walletAuthority(walletID []byte) Authority {
	return Authority{walletID: walletID, identity: WalletAddress(walletID), governs: true}
}

func subaccountAuthority(walletID []byte, addr smallet.Address) Authority {
	return Authority{walletID: walletID, identity: addr}
}

// withAuthority is a private method, as only this module
// can grant an authority
func withAuthority(ctx smallet.Context, a Authority) smallet.Context {
	val, _ := ctx.Value(contextKeyAuthority).([]Authority)
	all := make([]Authority, 0, len(val)+1)
	all = append(all, val...)
	return context.WithValue(ctx, contextKeyAuthority, append(all, a))
}

// authorities returns all authorities granted to this context.
func authorities(ctx smallet.Context) []Authority {
	val, _ := ctx.Value(contextKeyAuthority).([]Authority)
	return val
}

// authorityFor returns the authority that governs given wallet.
func authorityFor(ctx smallet.Context, walletID []byte) (Authority, bool) {
	for _, a := range authorities(ctx) {
		if a.Governs(walletID) {
			return a, true
		}
	}
	return Authority{}, false
}

// Authenticate gets permissions granted by this module from the context.
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the conditions of all wallets this context acts as.
// Sub-account identities are not conditions and are only reported by
// HasAddress.
func (a Authenticate) GetConditions(ctx smallet.Context) []smallet.Condition {
	var conds []smallet.Condition
	for _, auth := range authorities(ctx) {
		if auth.governs {
			conds = append(conds, WalletCondition(auth.walletID))
		}
	}
	return conds
}

// HasAddress returns true if this context acts as given address.
func (a Authenticate) HasAddress(ctx smallet.Context, addr smallet.Address) bool {
	for _, auth := range authorities(ctx) {
		if auth.identity.Equals(addr) {
			return true
		}
	}
	return false
}
