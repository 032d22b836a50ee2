package multisig

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/app"
	"github.com/iov-one/smallet/smallettest"
	"github.com/iov-one/smallet/smallettest/assert"
	"github.com/iov-one/smallet/x"
)

// genesisTime is the block time all scenarios start at.
var genesisTime = time.Date(2019, time.May, 6, 12, 0, 0, 0, time.UTC)

func newOwners(n int) ([]smallet.Condition, []smallet.Address) {
	conds := make([]smallet.Condition, n)
	addrs := make([]smallet.Address, n)
	for i := range conds {
		conds[i] = smallettest.NewCondition()
		addrs[i] = conds[i].Address()
	}
	return conds, addrs
}

func blockCtx(now time.Time) smallet.Context {
	return smallet.WithBlockTime(context.Background(), now)
}

// harness wires the extension the same way an application does. Owners
// sign by setting their conditions in the context.
type harness struct {
	signers  *smallettest.CtxAuth
	auth     x.Authenticator
	router   *app.Router
	executor *ProgramExecutor
	events   *recordingSink
	memo     *memoHandler
	db       smallet.CacheableKVStore
}

func newHarness(db smallet.CacheableKVStore) *harness {
	signers := &smallettest.CtxAuth{Key: "signers"}
	auth := x.ChainAuth(signers, Authenticate{})
	router := app.NewRouter()
	executor := NewProgramExecutor(auth)
	events := &recordingSink{}

	RegisterRoutes(router, auth, executor, events)
	RegisterWalletProgram(executor, router)
	memo := &memoHandler{}
	executor.Register(memoProgramID, memo, decodeMemo)
	return &harness{
		memo:     memo,
		signers:  signers,
		auth:     auth,
		router:   router,
		executor: executor,
		events:   events,
		db:       db,
	}
}

func (h *harness) ctx(now time.Time, signers ...smallet.Condition) smallet.Context {
	return h.signers.SetConditions(blockCtx(now), signers...)
}

// deliver runs check and deliver the way the engine does, check on a
// discarded cache and deliver with a savepoint.
func (h *harness) deliver(t testing.TB, ctx smallet.Context, msg smallet.Msg) (*smallet.DeliverResult, error) {
	t.Helper()
	tx := &smallettest.Tx{Msg: msg}

	cache := h.db.CacheWrap()
	_, checkErr := h.router.Check(ctx, cache, tx)
	cache.Discard()

	cache = h.db.CacheWrap()
	res, err := h.router.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	assert.Nil(t, cache.Write())
	if checkErr != nil {
		t.Fatalf("check failed where deliver succeeded: %+v", checkErr)
	}
	return res, nil
}

func (h *harness) mustDeliver(t testing.TB, ctx smallet.Context, msg smallet.Msg) *smallet.DeliverResult {
	t.Helper()
	res, err := h.deliver(t, ctx, msg)
	if err != nil {
		t.Fatalf("cannot deliver %T: %+v", msg, err)
	}
	return res
}

func (h *harness) createWallet(t testing.TB, signer smallet.Condition, owners []smallet.Address, threshold uint32, delay int64) []byte {
	t.Helper()
	res := h.mustDeliver(t, h.ctx(genesisTime, signer), &CreateWalletMsg{
		Owners:       owners,
		Threshold:    threshold,
		MinimumDelay: delay,
	})
	return res.Data
}

func (h *harness) propose(t testing.TB, now time.Time, proposer smallet.Condition, walletID []byte, eta int64, ins ...*Instruction) uint64 {
	t.Helper()
	h.mustDeliver(t, h.ctx(now, proposer), &CreateTransactionMsg{
		WalletID:     walletID,
		Instructions: ins,
		ETA:          eta,
	})
	w, err := NewWalletBucket().GetWallet(h.db, walletID)
	assert.Nil(t, err)
	return w.NumTransactions - 1
}

func (h *harness) wallet(t testing.TB, id []byte) *Wallet {
	t.Helper()
	w, err := NewWalletBucket().GetWallet(h.db, id)
	assert.Nil(t, err)
	return w
}

func (h *harness) transaction(t testing.TB, walletID []byte, index uint64) *Transaction {
	t.Helper()
	tx, err := NewTransactionBucket().GetTransaction(h.db, walletID, index)
	assert.Nil(t, err)
	return tx
}

// recordingSink keeps all events in order.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(ctx smallet.Context, e Event) {
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []EventKind {
	kinds := make([]EventKind, len(s.events))
	for i, e := range s.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (s *recordingSink) reset() {
	s.events = nil
}

// memoProgram is a program that records the identity of each dispatch.
var memoProgramID = smallet.NewCondition("test", "program", []byte("memo")).Address()

type memoMsg struct {
	Text string
}

func (memoMsg) Path() string { return "test/memo" }

func (*memoMsg) Validate() error { return nil }

func (m *memoMsg) Marshal() ([]byte, error) { return []byte(m.Text), nil }

func (m *memoMsg) Unmarshal(raw []byte) error {
	m.Text = string(raw)
	return nil
}

func decodeMemo(data []byte) (smallet.Msg, error) {
	return &memoMsg{Text: string(data)}, nil
}

// memoHandler stores the memo text under the key of each signer account of
// the instruction.
type memoHandler struct {
	calls int
}

func (h *memoHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	return &smallet.CheckResult{}, nil
}

func (h *memoHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	h.calls++
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	ins := InstructionOf(tx)
	for _, a := range ins.Accounts {
		if a.IsSigner {
			if err := db.Set(memoKey(a.Address), []byte(msg.(*memoMsg).Text)); err != nil {
				return nil, err
			}
		}
	}
	res := &smallet.DeliverResult{}
	res.AddTag([]byte("memo"), []byte(msg.(*memoMsg).Text))
	return res, nil
}

func memoKey(a smallet.Address) []byte {
	return append([]byte("memo:"), a...)
}

func memoInstruction(text string, signers ...smallet.Address) *Instruction {
	var accs []*AccountMeta
	for _, s := range signers {
		accs = append(accs, &AccountMeta{Address: s, IsSigner: true, IsWritable: true})
	}
	return &Instruction{ProgramID: memoProgramID, Accounts: accs, Data: []byte(text)}
}
