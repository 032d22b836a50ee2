package x

import (
	"context"
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/smallettest"
	"github.com/iov-one/smallet/smallettest/assert"
)

func TestAuth(t *testing.T) {
	a := smallettest.NewCondition()
	b := smallettest.NewCondition()
	c := smallettest.NewCondition()

	ctx1 := &smallettest.CtxAuth{Key: "foo"}
	ctx2 := &smallettest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          smallet.Context
		auth         Authenticator
		mainSigner   smallet.Condition
		wantInCtx    smallet.Condition
		wantNotInCtx smallet.Condition
		wantAll      []smallet.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &smallettest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &smallettest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []smallet.Condition{a},
		},
		"signer b": {
			ctx: context.Background(),
			auth: ChainAuth(
				&smallettest.Auth{Signer: b},
				&smallettest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []smallet.Condition{b, a},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []smallet.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
				t.Fatal("condition address that was expected in context not found")
			}
			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
				t.Fatal("condition address that was expected not to be in context found")
			}

			all := tc.auth.GetConditions(tc.ctx)
			assert.Equal(t, tc.wantAll, all)

			addrs := GetAddresses(tc.ctx, tc.auth)
			if !HasAllAddresses(tc.ctx, tc.auth, addrs) {
				t.Fatal("context must have all addresses it reports")
			}
			if tc.wantNotInCtx != nil && HasAllAddresses(tc.ctx, tc.auth, append(addrs, tc.wantNotInCtx.Address())) {
				t.Fatal("missing address must not be reported")
			}
		})
	}
}

func TestAnySigner(t *testing.T) {
	a := smallettest.NewCondition()
	b := smallettest.NewCondition()
	auth := &smallettest.Auth{Signer: b}

	got := AnySigner(context.Background(), auth, []smallet.Address{a.Address(), b.Address()})
	assert.Equal(t, b.Address(), got)

	got = AnySigner(context.Background(), auth, []smallet.Address{a.Address()})
	assert.Nil(t, got)
}
