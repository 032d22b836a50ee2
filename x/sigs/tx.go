package sigs

import (
	"github.com/iov-one/smallet"
)

// SignedTx represents a transaction that declares who authorized it.
//
// Signers are trusted as given. The transaction source is responsible for
// proving them, for example a local operator tool acting on behalf of its
// user.
type SignedTx interface {
	smallet.Tx

	// GetSigners returns the conditions that authorized this transaction,
	// in order. The first one is the main signer.
	GetSigners() []smallet.Condition
}

// StdTx is the simplest SignedTx: a message together with its signers.
type StdTx struct {
	Msg     smallet.Msg
	Signers []smallet.Condition
}

var _ SignedTx = (*StdTx)(nil)

func (tx *StdTx) GetMsg() (smallet.Msg, error) {
	return tx.Msg, nil
}

func (tx *StdTx) GetSigners() []smallet.Condition {
	return tx.Signers
}
