package multisig

import (
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/smallettest"
	"github.com/iov-one/smallet/smallettest/assert"
)

func TestAuthenticate(t *testing.T) {
	first := smallettest.SequenceID(1)
	second := smallettest.SequenceID(2)
	derived, err := DeriveAddress(WalletAddress(first), Derived, 0)
	assert.Nil(t, err)

	ctx := blockCtx(genesisTime)
	auth := Authenticate{}

	assert.Equal(t, 0, len(auth.GetConditions(ctx)))
	assert.Equal(t, false, auth.HasAddress(ctx, WalletAddress(first)))

	ctx = withAuthority(ctx, walletAuthority(first))
	ctx2 := withAuthority(ctx, subaccountAuthority(second, derived))

	assert.Equal(t, []smallet.Condition{WalletCondition(first)}, auth.GetConditions(ctx))
	// Sub-account identities are addresses, not conditions.
	assert.Equal(t, []smallet.Condition{WalletCondition(first)}, auth.GetConditions(ctx2))

	assert.Equal(t, true, auth.HasAddress(ctx2, WalletAddress(first)))
	assert.Equal(t, true, auth.HasAddress(ctx2, derived))
	assert.Equal(t, false, auth.HasAddress(ctx, derived))
	assert.Equal(t, false, auth.HasAddress(ctx2, WalletAddress(second)))
}

func TestAuthorityFor(t *testing.T) {
	first := smallettest.SequenceID(1)
	second := smallettest.SequenceID(2)
	invoker, err := DeriveAddress(WalletAddress(first), OwnerInvoker, 0)
	assert.Nil(t, err)

	cases := map[string]struct {
		granted []Authority
		wallet  []byte
		want    bool
	}{
		"nothing granted": {
			wallet: first,
			want:   false,
		},
		"wallet authority": {
			granted: []Authority{walletAuthority(first)},
			wallet:  first,
			want:    true,
		},
		"authority of another wallet": {
			granted: []Authority{walletAuthority(second)},
			wallet:  first,
			want:    false,
		},
		"sub-account authority": {
			granted: []Authority{subaccountAuthority(first, invoker)},
			wallet:  first,
			want:    false,
		},
		"nested authorities": {
			granted: []Authority{walletAuthority(second), walletAuthority(first)},
			wallet:  first,
			want:    true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := blockCtx(genesisTime)
			for _, a := range tc.granted {
				ctx = withAuthority(ctx, a)
			}
			a, ok := authorityFor(ctx, tc.wallet)
			assert.Equal(t, tc.want, ok)
			assert.Equal(t, tc.want, a.Governs(tc.wallet))
		})
	}
}

func TestWithAuthorityDoesNotLeak(t *testing.T) {
	first := smallettest.SequenceID(1)
	second := smallettest.SequenceID(2)

	parent := withAuthority(blockCtx(genesisTime), walletAuthority(first))
	a := withAuthority(parent, walletAuthority(second))
	b := withAuthority(parent, subaccountAuthority(first, WalletAddress(second)))

	assert.Equal(t, 1, len(authorities(parent)))
	assert.Equal(t, 2, len(authorities(a)))
	assert.Equal(t, 2, len(authorities(b)))
	assert.Equal(t, true, authorities(a)[1].Governs(second))
	assert.Equal(t, false, authorities(b)[1].Governs(second))
}
