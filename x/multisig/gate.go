package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x/utils"
)

// Gate validates execution preconditions and executes transactions. A
// transaction is executed at most once.
type Gate struct {
	wallets  WalletBucket
	txs      TransactionBucket
	executor Executor
	sink     EventSink
}

func NewGate(executor Executor, sink EventSink) Gate {
	return Gate{
		wallets:  NewWalletBucket(),
		txs:      NewTransactionBucket(),
		executor: executor,
		sink:     sink,
	}
}

// Validate returns the wallet and the transaction if the transaction can be
// executed by the caller at the current block time.
func (g Gate) Validate(ctx smallet.Context, db smallet.ReadOnlyKVStore, walletID []byte, index uint64, caller smallet.Address) (*Wallet, *Transaction, error) {
	now, err := smallet.BlockTime(ctx)
	if err != nil {
		return nil, nil, err
	}
	w, err := g.wallets.GetWallet(db, walletID)
	if err != nil {
		return nil, nil, err
	}
	t, err := g.txs.GetTransaction(db, walletID, index)
	if err != nil {
		return nil, nil, err
	}
	if err := checkExecutable(walletID, w, t, caller, smallet.AsUnixTime(now)); err != nil {
		return nil, nil, err
	}
	return w, t, nil
}

func checkExecutable(walletID []byte, w *Wallet, t *Transaction, caller smallet.Address, now smallet.UnixTime) error {
	if err := t.checkPending(walletID, w); err != nil {
		return err
	}
	if t.ETA != NoETA {
		late := now.Sub(smallet.UnixTime(t.ETA))
		if late < 0 {
			return errors.Wrapf(ErrTransactionNotReady, "eta is %d", t.ETA)
		}
		if late > w.GracePeriod {
			return errors.Wrapf(ErrTransactionIsStale, "grace period ended at %d", t.ETA+w.GracePeriod)
		}
	}
	if n := t.NumSigners(); n < int(w.Threshold) {
		return errors.Wrapf(ErrNotEnoughSigners, "%d of %d", n, w.Threshold)
	}
	if !w.IsOwner(caller) {
		return errors.Wrapf(ErrInvalidOwner, "%s cannot execute", caller)
	}
	return nil
}

// Execute dispatches all instructions of the transaction acting as the
// wallet and marks the transaction executed.
func (g Gate) Execute(ctx smallet.Context, db smallet.KVStore, walletID []byte, index uint64, caller smallet.Address) (*smallet.DeliverResult, *Transaction, error) {
	return g.execute(ctx, db, walletID, index, caller, func() (Authority, error) {
		return walletAuthority(walletID), nil
	})
}

// ExecuteDerived dispatches all instructions of the transaction acting as a
// derived sub-account of the wallet and marks the transaction executed.
func (g Gate) ExecuteDerived(ctx smallet.Context, db smallet.KVStore, walletID []byte, index, derivedIndex uint64, caller smallet.Address) (*smallet.DeliverResult, *Transaction, error) {
	return g.execute(ctx, db, walletID, index, caller, func() (Authority, error) {
		addr, err := DeriveAddress(WalletAddress(walletID), Derived, derivedIndex)
		if err != nil {
			return Authority{}, err
		}
		return subaccountAuthority(walletID, addr), nil
	})
}

// execute grants the authority returned by mint only when the transaction
// passed validation.
func (g Gate) execute(
	ctx smallet.Context,
	db smallet.KVStore,
	walletID []byte,
	index uint64,
	caller smallet.Address,
	mint func() (Authority, error),
) (*smallet.DeliverResult, *Transaction, error) {
	_, t, err := g.Validate(ctx, db, walletID, index, caller)
	if err != nil {
		return nil, nil, err
	}
	a, err := mint()
	if err != nil {
		return nil, nil, err
	}
	now, _ := smallet.BlockTime(ctx)

	var res *smallet.DeliverResult
	dctx, events := withEventBuffer(withAuthority(ctx, a))
	err = utils.InCache(db, func(cache smallet.KVStore) error {
		r, err := g.executor.Execute(dctx, cache, t.Instructions)
		if err != nil {
			return errors.Wrap(err, "dispatch")
		}
		t.ExecutedAt = int64(smallet.AsUnixTime(now))
		t.Executor = caller
		if err := g.txs.Save(cache, t); err != nil {
			return errors.Wrap(err, "cannot save transaction")
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events.flush(ctx, g.sink)
	emit(ctx, g.sink, Event{
		Kind:     EventTransactionExecuted,
		WalletID: walletID,
		Index:    index,
		Actor:    caller,
		Time:     smallet.AsUnixTime(now),
	})
	return res, t, nil
}

// Invoke dispatches a single instruction acting as an owner invoker
// sub-account of the wallet. Any current owner can invoke without
// approvals.
func (g Gate) Invoke(ctx smallet.Context, db smallet.KVStore, walletID []byte, index uint64, owner smallet.Address, ins *Instruction, signAsInvoker bool) (*smallet.DeliverResult, smallet.Address, error) {
	w, err := g.wallets.GetWallet(db, walletID)
	if err != nil {
		return nil, nil, err
	}
	if !w.IsOwner(owner) {
		return nil, nil, errors.Wrapf(ErrInvalidOwner, "%s cannot invoke", owner)
	}
	invoker, err := DeriveAddress(WalletAddress(walletID), OwnerInvoker, index)
	if err != nil {
		return nil, nil, err
	}
	if signAsInvoker {
		ins = markSigner(ins, invoker)
	}

	var res *smallet.DeliverResult
	dctx, events := withEventBuffer(withAuthority(ctx, subaccountAuthority(walletID, invoker)))
	err = utils.InCache(db, func(cache smallet.KVStore) error {
		r, err := g.executor.Execute(dctx, cache, []*Instruction{ins})
		res = r
		return err
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "dispatch")
	}
	events.flush(ctx, g.sink)
	return res, invoker, nil
}

// markSigner returns a copy of the instruction with all accounts of given
// address marked as signers.
func markSigner(ins *Instruction, addr smallet.Address) *Instruction {
	cp := *ins
	cp.Accounts = make([]*AccountMeta, len(ins.Accounts))
	for i, a := range ins.Accounts {
		acc := *a
		if acc.Address.Equals(addr) {
			acc.IsSigner = true
		}
		cp.Accounts[i] = &acc
	}
	return &cp
}
