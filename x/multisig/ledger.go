package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// Ledger creates and sequences transactions of wallets.
type Ledger struct {
	wallets WalletBucket
	txs     TransactionBucket
}

func NewLedger() Ledger {
	return Ledger{
		wallets: NewWalletBucket(),
		txs:     NewTransactionBucket(),
	}
}

// Propose stores a new transaction of the wallet. The proposer must be a
// current owner and its approval is recorded right away. The updated
// wallet is stored as well.
func (l Ledger) Propose(
	db smallet.KVStore,
	walletID []byte,
	w *Wallet,
	proposer smallet.Address,
	ins []*Instruction,
	eta int64,
	now smallet.UnixTime,
) (*Transaction, error) {
	pos := indexOf(w.Owners, proposer)
	if pos < 0 {
		return nil, errors.Wrapf(ErrInvalidOwner, "%s is not an owner", proposer)
	}
	if err := checkETA(w, eta, now); err != nil {
		return nil, err
	}
	if err := validateInstructions(ins); err != nil {
		return nil, err
	}

	index, err := w.nextIndex()
	if err != nil {
		return nil, err
	}
	signers := make([]bool, len(w.Owners))
	signers[pos] = true

	t := &Transaction{
		WalletID:       walletID,
		Index:          index,
		Proposer:       proposer,
		Instructions:   ins,
		Signers:        signers,
		OwnerSetSeqno:  w.OwnerSetSeqno,
		ETA:            eta,
		ExecutedAt:     NotExecuted,
		OwnersSnapshot: copyAddresses(w.Owners),
	}
	if _, err := l.wallets.Put(db, walletID, w); err != nil {
		return nil, errors.Wrap(err, "cannot save wallet")
	}
	if err := l.txs.Save(db, t); err != nil {
		return nil, errors.Wrap(err, "cannot save transaction")
	}
	return t, nil
}

// checkETA ensures the ETA satisfies the wallet timelock.
func checkETA(w *Wallet, eta int64, now smallet.UnixTime) error {
	if w.MinimumDelay > 0 {
		if eta == NoETA {
			return errors.Wrapf(ErrInvalidETA, "wallet requires a delay of %d seconds", w.MinimumDelay)
		}
		if smallet.UnixTime(eta).Sub(now) < w.MinimumDelay {
			return errors.Wrapf(ErrInvalidETA, "eta must be at least %d seconds in the future", w.MinimumDelay)
		}
	}
	if eta == NoETA {
		return nil
	}
	delay := smallet.UnixTime(eta).Sub(now)
	if delay < 0 {
		return errors.Wrap(ErrInvalidETA, "eta must be in the future")
	}
	if delay > MaxDelay {
		return errors.Wrapf(ErrDelayTooHigh, "eta must be at most %d seconds in the future", MaxDelay)
	}
	return nil
}
