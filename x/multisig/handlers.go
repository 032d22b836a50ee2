package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x"
)

const (
	createWalletCost      int64 = 100
	walletChangeCost      int64 = 50
	createTransactionCost int64 = 100
	approvalCost          int64 = 10
	executeCost           int64 = 50
	subaccountCost        int64 = 20
)

const (
	tagWallet      = "wallet"
	tagTransaction = "transaction"
	tagSubaccount  = "subaccount"
)

// RegisterQuery registers wallet buckets for querying.
func RegisterQuery(qr smallet.QueryRouter) {
	NewWalletBucket().Register("wallets", qr)
	NewTransactionBucket().Register("transactions", qr)
	NewSubaccountBucket().Register("subaccounts", qr)
}

// RegisterRoutes registers handlers for wallet message processing.
//
// Wallet configuration changes are registered as well, but they succeed
// only when dispatched by the executor of the same wallet transaction.
// Use RegisterWalletProgram to route those instructions back to the
// registry.
func RegisterRoutes(r smallet.Registry, auth x.Authenticator, executor Executor, sink EventSink) {
	if sink == nil {
		sink = NopSink{}
	}
	wallets := NewWalletBucket()
	txs := NewTransactionBucket()
	gate := NewGate(executor, sink)

	r.Handle(&CreateWalletMsg{}, CreateWalletHandler{auth: auth, bucket: wallets, sink: sink})
	r.Handle(&SetOwnersMsg{}, SetOwnersHandler{bucket: wallets, sink: sink})
	r.Handle(&ChangeThresholdMsg{}, ChangeThresholdHandler{bucket: wallets, sink: sink})
	r.Handle(&CreateTransactionMsg{}, CreateTransactionHandler{auth: auth, wallets: wallets, ledger: NewLedger(), sink: sink})
	r.Handle(&ApproveMsg{}, ApprovalHandler{auth: auth, wallets: wallets, txs: txs, sink: sink, approve: true})
	r.Handle(&UnapproveMsg{}, ApprovalHandler{auth: auth, wallets: wallets, txs: txs, sink: sink, approve: false})
	r.Handle(&ExecuteTransactionMsg{}, ExecuteTransactionHandler{auth: auth, wallets: wallets, gate: gate})
	r.Handle(&ExecuteTransactionDerivedMsg{}, ExecuteTransactionHandler{auth: auth, wallets: wallets, gate: gate, derived: true})
	r.Handle(&OwnerInvokeMsg{}, OwnerInvokeHandler{auth: auth, wallets: wallets, gate: gate})
	r.Handle(&CreateSubaccountInfoMsg{}, CreateSubaccountInfoHandler{auth: auth, bucket: NewSubaccountBucket()})
}

// RegisterWalletProgram routes wallet program instructions to given
// handler, usually the same router RegisterRoutes was called with.
func RegisterWalletProgram(e *ProgramExecutor, h smallet.Handler) {
	e.Register(WalletProgramID, h, DecodeWalletAction)
}

// CreateWalletHandler creates wallets.
type CreateWalletHandler struct {
	auth   x.Authenticator
	bucket WalletBucket
	sink   EventSink
}

var _ smallet.Handler = CreateWalletHandler{}

func (h CreateWalletHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: createWalletCost}, nil
}

func (h CreateWalletHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	w := NewWallet(msg.Owners, msg.Threshold, msg.MinimumDelay)
	id, err := h.bucket.Put(db, nil, w)
	if err != nil {
		return nil, errors.Wrap(err, "cannot save wallet")
	}
	now, _ := smallet.BlockTime(ctx)
	emit(ctx, h.sink, Event{
		Kind:         EventWalletCreated,
		WalletID:     id,
		Owners:       w.Owners,
		Threshold:    w.Threshold,
		MinimumDelay: w.MinimumDelay,
		Time:         smallet.AsUnixTime(now),
	})
	res := &smallet.DeliverResult{Data: id}
	res.AddTag([]byte(tagWallet), id)
	return res, nil
}

func (h CreateWalletHandler) validate(ctx smallet.Context, tx smallet.Tx) (*CreateWalletMsg, error) {
	var msg CreateWalletMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	if _, err := smallet.BlockTime(ctx); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetOwnersHandler replaces the owner set of a wallet. The wallet authority
// must be present in the context.
type SetOwnersHandler struct {
	bucket WalletBucket
	sink   EventSink
}

var _ smallet.Handler = SetOwnersHandler{}

func (h SetOwnersHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: walletChangeCost}, nil
}

func (h SetOwnersHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, w, auth, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := w.SetOwners(auth, msg.WalletID, msg.Owners); err != nil {
		return nil, err
	}
	if _, err := h.bucket.Put(db, msg.WalletID, w); err != nil {
		return nil, errors.Wrap(err, "cannot save wallet")
	}
	now, _ := smallet.BlockTime(ctx)
	emit(ctx, h.sink, Event{
		Kind:      EventOwnerSetChanged,
		WalletID:  msg.WalletID,
		Owners:    w.Owners,
		Threshold: w.Threshold,
		Time:      smallet.AsUnixTime(now),
	})
	res := &smallet.DeliverResult{}
	res.AddTag([]byte(tagWallet), msg.WalletID)
	return res, nil
}

func (h SetOwnersHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*SetOwnersMsg, *Wallet, Authority, error) {
	var msg SetOwnersMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, nil, Authority{}, errors.Wrap(err, "load msg")
	}
	auth, ok := authorityFor(ctx, msg.WalletID)
	if !ok {
		return nil, nil, Authority{}, errors.Wrap(errors.ErrUnauthorized, "only the wallet can change its owners")
	}
	w, err := h.bucket.GetWallet(db, msg.WalletID)
	if err != nil {
		return nil, nil, Authority{}, err
	}
	return &msg, w, auth, nil
}

// ChangeThresholdHandler changes the threshold of a wallet. The wallet
// authority must be present in the context.
type ChangeThresholdHandler struct {
	bucket WalletBucket
	sink   EventSink
}

var _ smallet.Handler = ChangeThresholdHandler{}

func (h ChangeThresholdHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: walletChangeCost}, nil
}

func (h ChangeThresholdHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, w, auth, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := w.ChangeThreshold(auth, msg.WalletID, msg.Threshold); err != nil {
		return nil, err
	}
	if _, err := h.bucket.Put(db, msg.WalletID, w); err != nil {
		return nil, errors.Wrap(err, "cannot save wallet")
	}
	now, _ := smallet.BlockTime(ctx)
	emit(ctx, h.sink, Event{
		Kind:      EventThresholdChanged,
		WalletID:  msg.WalletID,
		Threshold: w.Threshold,
		Time:      smallet.AsUnixTime(now),
	})
	res := &smallet.DeliverResult{}
	res.AddTag([]byte(tagWallet), msg.WalletID)
	return res, nil
}

func (h ChangeThresholdHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*ChangeThresholdMsg, *Wallet, Authority, error) {
	var msg ChangeThresholdMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, nil, Authority{}, errors.Wrap(err, "load msg")
	}
	auth, ok := authorityFor(ctx, msg.WalletID)
	if !ok {
		return nil, nil, Authority{}, errors.Wrap(errors.ErrUnauthorized, "only the wallet can change its threshold")
	}
	w, err := h.bucket.GetWallet(db, msg.WalletID)
	if err != nil {
		return nil, nil, Authority{}, err
	}
	return &msg, w, auth, nil
}

// CreateTransactionHandler proposes transactions.
type CreateTransactionHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
	ledger  Ledger
	sink    EventSink
}

var _ smallet.Handler = CreateTransactionHandler{}

func (h CreateTransactionHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	msg, w, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, _ := smallet.BlockTime(ctx)
	if err := checkETA(w, msg.ETA, smallet.AsUnixTime(now)); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: createTransactionCost}, nil
}

func (h CreateTransactionHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, w, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, _ := smallet.BlockTime(ctx)
	t, err := h.ledger.Propose(db, msg.WalletID, w, proposer, msg.Instructions, msg.ETA, smallet.AsUnixTime(now))
	if err != nil {
		return nil, err
	}
	emit(ctx, h.sink, Event{
		Kind:     EventTransactionCreated,
		WalletID: msg.WalletID,
		Index:    t.Index,
		Actor:    proposer,
		ETA:      t.ETA,
		Time:     smallet.AsUnixTime(now),
	})
	key := TransactionKey(msg.WalletID, t.Index)
	res := &smallet.DeliverResult{Data: key}
	res.AddTag([]byte(tagWallet), msg.WalletID)
	res.AddTag([]byte(tagTransaction), key)
	return res, nil
}

func (h CreateTransactionHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*CreateTransactionMsg, *Wallet, smallet.Address, error) {
	var msg CreateTransactionMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if _, err := smallet.BlockTime(ctx); err != nil {
		return nil, nil, nil, err
	}
	w, err := h.wallets.GetWallet(db, msg.WalletID)
	if err != nil {
		return nil, nil, nil, err
	}
	proposer := x.AnySigner(ctx, h.auth, w.Owners)
	if proposer == nil {
		return nil, nil, nil, errors.Wrap(ErrInvalidOwner, "proposer must be an owner")
	}
	return &msg, w, proposer, nil
}

// ApprovalHandler records or withdraws an owner approval of a transaction.
type ApprovalHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
	txs     TransactionBucket
	sink    EventSink
	// approve is true for ApproveMsg and false for UnapproveMsg.
	approve bool
}

var _ smallet.Handler = ApprovalHandler{}

func (h ApprovalHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	walletID, w, t, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := t.SetApproval(walletID, w, owner, h.approve); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: approvalCost}, nil
}

func (h ApprovalHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	walletID, w, t, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := t.SetApproval(walletID, w, owner, h.approve); err != nil {
		return nil, err
	}
	if err := h.txs.Save(db, t); err != nil {
		return nil, errors.Wrap(err, "cannot save transaction")
	}

	kind := EventTransactionApproved
	if !h.approve {
		kind = EventTransactionUnapproved
	}
	now, _ := smallet.BlockTime(ctx)
	emit(ctx, h.sink, Event{
		Kind:     kind,
		WalletID: walletID,
		Index:    t.Index,
		Actor:    owner,
		Time:     smallet.AsUnixTime(now),
	})
	res := &smallet.DeliverResult{}
	res.AddTag([]byte(tagWallet), walletID)
	res.AddTag([]byte(tagTransaction), TransactionKey(walletID, t.Index))
	return res, nil
}

func (h ApprovalHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) ([]byte, *Wallet, *Transaction, smallet.Address, error) {
	var (
		walletID []byte
		index    uint64
	)
	if h.approve {
		var msg ApproveMsg
		if err := smallet.LoadMsg(tx, &msg); err != nil {
			return nil, nil, nil, nil, errors.Wrap(err, "load msg")
		}
		walletID, index = msg.WalletID, msg.Index
	} else {
		var msg UnapproveMsg
		if err := smallet.LoadMsg(tx, &msg); err != nil {
			return nil, nil, nil, nil, errors.Wrap(err, "load msg")
		}
		walletID, index = msg.WalletID, msg.Index
	}
	if _, err := smallet.BlockTime(ctx); err != nil {
		return nil, nil, nil, nil, err
	}

	w, err := h.wallets.GetWallet(db, walletID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	t, err := h.txs.GetTransaction(db, walletID, index)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	// State is checked before the signer so that anyone, including an
	// owner added later, gets the owner set change reported.
	if err := t.checkPending(walletID, w); err != nil {
		return nil, nil, nil, nil, err
	}
	owner := x.AnySigner(ctx, h.auth, t.OwnersSnapshot)
	if owner == nil {
		return nil, nil, nil, nil, errors.Wrap(ErrInvalidOwner, "signer is not an owner")
	}
	return walletID, w, t, owner, nil
}

// ExecuteTransactionHandler executes approved transactions, acting either as
// the wallet or as its derived sub-account.
type ExecuteTransactionHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
	gate    Gate
	derived bool
}

var _ smallet.Handler = ExecuteTransactionHandler{}

func (h ExecuteTransactionHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	req, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, _, err := h.gate.Validate(ctx, db, req.walletID, req.index, req.caller); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteTransactionHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	req, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	var res *smallet.DeliverResult
	if h.derived {
		res, _, err = h.gate.ExecuteDerived(ctx, db, req.walletID, req.index, req.derivedIndex, req.caller)
	} else {
		res, _, err = h.gate.Execute(ctx, db, req.walletID, req.index, req.caller)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &smallet.DeliverResult{}
	}
	res.AddTag([]byte(tagWallet), req.walletID)
	res.AddTag([]byte(tagTransaction), TransactionKey(req.walletID, req.index))
	return res, nil
}

type executeRequest struct {
	walletID     []byte
	index        uint64
	derivedIndex uint64
	caller       smallet.Address
}

func (h ExecuteTransactionHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*executeRequest, error) {
	var req executeRequest
	if h.derived {
		var msg ExecuteTransactionDerivedMsg
		if err := smallet.LoadMsg(tx, &msg); err != nil {
			return nil, errors.Wrap(err, "load msg")
		}
		req.walletID, req.index, req.derivedIndex = msg.WalletID, msg.Index, msg.DerivedIndex
	} else {
		var msg ExecuteTransactionMsg
		if err := smallet.LoadMsg(tx, &msg); err != nil {
			return nil, errors.Wrap(err, "load msg")
		}
		req.walletID, req.index = msg.WalletID, msg.Index
	}
	w, err := h.wallets.GetWallet(db, req.walletID)
	if err != nil {
		return nil, err
	}
	// A signer that is not an owner is rejected by the gate, after all
	// transaction checks.
	req.caller = x.AnySigner(ctx, h.auth, w.Owners)
	return &req, nil
}

// OwnerInvokeHandler lets a single owner dispatch an instruction as the
// owner invoker sub-account.
type OwnerInvokeHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
	gate    Gate
}

var _ smallet.Handler = OwnerInvokeHandler{}

func (h OwnerInvokeHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: executeCost}, nil
}

func (h OwnerInvokeHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, invoker, err := h.gate.Invoke(ctx, db, msg.WalletID, msg.Index, owner, msg.Instruction, msg.SignAsInvoker)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &smallet.DeliverResult{}
	}
	res.Data = invoker
	res.AddTag([]byte(tagWallet), msg.WalletID)
	res.AddTag([]byte(tagSubaccount), invoker)
	return res, nil
}

func (h OwnerInvokeHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*OwnerInvokeMsg, smallet.Address, error) {
	var msg OwnerInvokeMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	w, err := h.wallets.GetWallet(db, msg.WalletID)
	if err != nil {
		return nil, nil, err
	}
	owner := x.AnySigner(ctx, h.auth, w.Owners)
	if owner == nil {
		return nil, nil, errors.Wrap(ErrInvalidOwner, "signer is not an owner")
	}
	return &msg, owner, nil
}

// CreateSubaccountInfoHandler stores the reverse lookup of a sub-account.
type CreateSubaccountInfoHandler struct {
	auth   x.Authenticator
	bucket SubaccountBucket
}

var _ smallet.Handler = CreateSubaccountInfoHandler{}

func (h CreateSubaccountInfoHandler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &smallet.CheckResult{GasAllocated: subaccountCost}, nil
}

func (h CreateSubaccountInfoHandler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	info := &SubaccountInfo{
		WalletID: msg.WalletID,
		Kind:     msg.Kind,
		Index:    msg.Index,
	}
	if _, err := h.bucket.Put(db, msg.Subaccount, info); err != nil {
		return nil, errors.Wrap(err, "cannot save subaccount info")
	}
	res := &smallet.DeliverResult{Data: msg.Subaccount}
	res.AddTag([]byte(tagWallet), msg.WalletID)
	res.AddTag([]byte(tagSubaccount), msg.Subaccount)
	return res, nil
}

func (h CreateSubaccountInfoHandler) validate(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*CreateSubaccountInfoMsg, error) {
	var msg CreateSubaccountInfoMsg
	if err := smallet.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	addr, err := DeriveAddress(WalletAddress(msg.WalletID), msg.Kind, msg.Index)
	if err != nil {
		return nil, err
	}
	if !addr.Equals(msg.Subaccount) {
		return nil, errors.Wrapf(ErrSubaccountOwnerMismatch, "%s is not %s subaccount %d", msg.Subaccount, msg.Kind, msg.Index)
	}
	switch err := h.bucket.Has(db, msg.Subaccount); {
	case err == nil:
		return nil, errors.Wrap(errors.ErrDuplicate, "subaccount info exists")
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return &msg, nil
}
