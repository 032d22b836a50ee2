package multisig

import (
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/smallettest"
	"github.com/iov-one/smallet/smallettest/assert"
	"github.com/iov-one/smallet/store"
)

func TestWalletValidate(t *testing.T) {
	_, owners := newOwners(3)
	many := make([]smallet.Address, MaxOwners+1)
	for i := range many {
		many[i] = smallettest.NewCondition().Address()
	}

	cases := map[string]struct {
		wallet  *Wallet
		wantErr *errors.Error
	}{
		"valid": {
			wallet: NewWallet(owners, 2, 0),
		},
		"zero threshold": {
			wallet: NewWallet(owners, 0, 0),
		},
		"threshold equal to owners": {
			wallet: NewWallet(owners, 3, 60),
		},
		"threshold above owners": {
			wallet:  NewWallet(owners, 4, 0),
			wantErr: ErrInvalidThreshold,
		},
		"no owners": {
			wallet:  NewWallet(nil, 0, 0),
			wantErr: errors.ErrEmpty,
		},
		"duplicated owner": {
			wallet:  NewWallet([]smallet.Address{owners[0], owners[1], owners[0]}, 1, 0),
			wantErr: ErrInvalidOwner,
		},
		"invalid owner address": {
			wallet:  NewWallet([]smallet.Address{owners[0], []byte("short")}, 1, 0),
			wantErr: ErrInvalidOwner,
		},
		"too many owners": {
			wallet:  NewWallet(many, 1, 0),
			wantErr: ErrInvalidOwner,
		},
		"negative delay": {
			wallet:  NewWallet(owners, 1, -1),
			wantErr: ErrInvalidETA,
		},
		"delay too high": {
			wallet:  NewWallet(owners, 1, MaxDelay),
			wantErr: ErrDelayTooHigh,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.wallet.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}

func TestWalletSetOwners(t *testing.T) {
	id := smallettest.SequenceID(1)
	_, owners := newOwners(4)

	cases := map[string]struct {
		authority     Authority
		owners        []smallet.Address
		wantErr       *errors.Error
		wantThreshold uint32
		wantSeqno     uint32
	}{
		"replace owners": {
			authority:     walletAuthority(id),
			owners:        owners[1:],
			wantThreshold: 2,
			wantSeqno:     1,
		},
		"threshold is clamped": {
			authority:     walletAuthority(id),
			owners:        owners[:1],
			wantThreshold: 1,
			wantSeqno:     1,
		},
		"another wallet authority": {
			authority: walletAuthority(smallettest.SequenceID(2)),
			owners:    owners[1:],
			wantErr:   errors.ErrUnauthorized,
		},
		"sub-account authority does not govern": {
			authority: subaccountAuthority(id, owners[3]),
			owners:    owners[1:],
			wantErr:   errors.ErrUnauthorized,
		},
		"zero authority": {
			owners:  owners[1:],
			wantErr: errors.ErrUnauthorized,
		},
		"duplicated owners": {
			authority: walletAuthority(id),
			owners:    []smallet.Address{owners[0], owners[0]},
			wantErr:   ErrInvalidOwner,
		},
		"empty owners": {
			authority: walletAuthority(id),
			owners:    nil,
			wantErr:   errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			w := NewWallet(owners[:3], 2, 0)
			err := w.SetOwners(tc.authority, id, tc.owners)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				assert.Equal(t, owners[:3], w.Owners)
				assert.Equal(t, uint32(0), w.OwnerSetSeqno)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.owners, w.Owners)
			assert.Equal(t, tc.wantThreshold, w.Threshold)
			assert.Equal(t, tc.wantSeqno, w.OwnerSetSeqno)
		})
	}
}

func TestWalletSetOwnersSeqnoOverflow(t *testing.T) {
	id := smallettest.SequenceID(1)
	_, owners := newOwners(2)
	w := NewWallet(owners, 1, 0)
	w.OwnerSetSeqno = ^uint32(0)
	err := w.SetOwners(walletAuthority(id), id, owners[:1])
	assert.IsErr(t, errors.ErrOverflow, err)
	assert.Equal(t, owners, w.Owners)
}

func TestWalletChangeThreshold(t *testing.T) {
	id := smallettest.SequenceID(1)
	_, owners := newOwners(3)

	w := NewWallet(owners, 2, 0)
	assert.IsErr(t, errors.ErrUnauthorized, w.ChangeThreshold(Authority{}, id, 1))
	assert.IsErr(t, ErrInvalidThreshold, w.ChangeThreshold(walletAuthority(id), id, 4))
	assert.Equal(t, uint32(2), w.Threshold)

	assert.Nil(t, w.ChangeThreshold(walletAuthority(id), id, 3))
	assert.Equal(t, uint32(3), w.Threshold)
	// Threshold changes do not invalidate proposals.
	assert.Equal(t, uint32(0), w.OwnerSetSeqno)
}

func TestWalletNextIndexOverflow(t *testing.T) {
	_, owners := newOwners(1)
	w := NewWallet(owners, 1, 0)
	w.NumTransactions = ^uint64(0)
	_, err := w.nextIndex()
	assert.IsErr(t, errors.ErrOverflow, err)
	assert.Equal(t, ^uint64(0), w.NumTransactions)
}

func TestTransactionState(t *testing.T) {
	const now = smallet.UnixTime(1000000)
	_, owners := newOwners(3)

	cases := map[string]struct {
		tx     Transaction
		wallet Wallet
		want   TxState
	}{
		"not enough approvals": {
			tx:     Transaction{Signers: []bool{true, false, false}, ETA: NoETA, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2},
			want:   Proposed,
		},
		"enough approvals": {
			tx:     Transaction{Signers: []bool{true, false, true}, ETA: NoETA, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2},
			want:   Executable,
		},
		"before eta": {
			tx:     Transaction{Signers: []bool{true, true, true}, ETA: int64(now) + 1, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2, GracePeriod: 10},
			want:   Proposed,
		},
		"at the end of grace period": {
			tx:     Transaction{Signers: []bool{true, true, true}, ETA: int64(now) - 10, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2, GracePeriod: 10},
			want:   Executable,
		},
		"after grace period": {
			tx:     Transaction{Signers: []bool{true, true, true}, ETA: int64(now) - 11, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2, GracePeriod: 10},
			want:   Stale,
		},
		"owner set changed": {
			tx:     Transaction{Signers: []bool{true, true, true}, ETA: NoETA, ExecutedAt: NotExecuted},
			wallet: Wallet{Owners: owners, Threshold: 2, OwnerSetSeqno: 1},
			want:   OwnerSetInvalidated,
		},
		"executed wins over owner set change": {
			tx:     Transaction{Signers: []bool{true, true, true}, ETA: NoETA, ExecutedAt: int64(now)},
			wallet: Wallet{Owners: owners, Threshold: 2, OwnerSetSeqno: 1},
			want:   Executed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tx.State(&tc.wallet, now))
		})
	}
}

func TestTransactionSetApproval(t *testing.T) {
	id := smallettest.SequenceID(1)
	_, owners := newOwners(3)
	stranger := smallettest.NewCondition().Address()

	newTx := func() *Transaction {
		return &Transaction{
			WalletID:       id,
			Signers:        []bool{true, false, false},
			ETA:            NoETA,
			ExecutedAt:     NotExecuted,
			OwnersSnapshot: copyAddresses(owners),
		}
	}

	cases := map[string]struct {
		wallet      *Wallet
		tx          func() *Transaction
		walletID    []byte
		owner       smallet.Address
		approve     bool
		wantErr     *errors.Error
		wantSigners []bool
	}{
		"approve": {
			wallet:      NewWallet(owners, 2, 0),
			tx:          newTx,
			walletID:    id,
			owner:       owners[2],
			approve:     true,
			wantSigners: []bool{true, false, true},
		},
		"approve twice is a no-op": {
			wallet:      NewWallet(owners, 2, 0),
			tx:          newTx,
			walletID:    id,
			owner:       owners[0],
			approve:     true,
			wantSigners: []bool{true, false, false},
		},
		"unapprove": {
			wallet:      NewWallet(owners, 2, 0),
			tx:          newTx,
			walletID:    id,
			owner:       owners[0],
			approve:     false,
			wantSigners: []bool{false, false, false},
		},
		"unapprove without approval is a no-op": {
			wallet:      NewWallet(owners, 2, 0),
			tx:          newTx,
			walletID:    id,
			owner:       owners[1],
			approve:     false,
			wantSigners: []bool{true, false, false},
		},
		"not an owner": {
			wallet:   NewWallet(owners, 2, 0),
			tx:       newTx,
			walletID: id,
			owner:    stranger,
			approve:  true,
			wantErr:  ErrInvalidOwner,
		},
		"wrong wallet": {
			wallet:   NewWallet(owners, 2, 0),
			tx:       newTx,
			walletID: smallettest.SequenceID(2),
			owner:    owners[1],
			approve:  true,
			wantErr:  errors.ErrInput,
		},
		"executed": {
			wallet: NewWallet(owners, 2, 0),
			tx: func() *Transaction {
				tx := newTx()
				tx.ExecutedAt = 5
				tx.Executor = owners[0]
				return tx
			},
			walletID: id,
			owner:    owners[1],
			approve:  true,
			wantErr:  ErrAlreadyExecuted,
		},
		"owner set changed": {
			wallet: func() *Wallet {
				w := NewWallet(owners, 2, 0)
				w.OwnerSetSeqno = 1
				return w
			}(),
			tx:       newTx,
			walletID: id,
			owner:    owners[1],
			approve:  true,
			wantErr:  ErrOwnerSetChanged,
		},
		"owner set change reported before execution": {
			wallet: func() *Wallet {
				w := NewWallet(owners, 2, 0)
				w.OwnerSetSeqno = 1
				return w
			}(),
			tx: func() *Transaction {
				tx := newTx()
				tx.ExecutedAt = 5
				tx.Executor = owners[0]
				return tx
			},
			walletID: id,
			owner:    stranger,
			approve:  false,
			wantErr:  ErrOwnerSetChanged,
		},
		"owner positions differ from the snapshot": {
			wallet:   NewWallet([]smallet.Address{owners[1], owners[0], owners[2]}, 2, 0),
			tx:       newTx,
			walletID: id,
			owner:    owners[1],
			approve:  true,
			wantErr:  ErrOwnerSetChanged,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			tx := tc.tx()
			err := tx.SetApproval(tc.walletID, tc.wallet, tc.owner, tc.approve)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantSigners, tx.Signers)
		})
	}
}

func TestInstructionValidate(t *testing.T) {
	addr := smallettest.NewCondition().Address()
	accounts := make([]*AccountMeta, MaxInstructionAccounts+1)
	for i := range accounts {
		accounts[i] = &AccountMeta{Address: addr}
	}

	cases := map[string]struct {
		ins     *Instruction
		wantErr *errors.Error
	}{
		"valid": {
			ins: &Instruction{ProgramID: memoProgramID, Accounts: []*AccountMeta{{Address: addr, IsSigner: true}}, Data: []byte("x")},
		},
		"nil": {
			ins:     nil,
			wantErr: errors.ErrEmpty,
		},
		"missing program": {
			ins:     &Instruction{},
			wantErr: errors.ErrInput,
		},
		"nil account": {
			ins:     &Instruction{ProgramID: memoProgramID, Accounts: []*AccountMeta{nil}},
			wantErr: errors.ErrEmpty,
		},
		"invalid account": {
			ins:     &Instruction{ProgramID: memoProgramID, Accounts: []*AccountMeta{{Address: []byte("x")}}},
			wantErr: errors.ErrInput,
		},
		"too many accounts": {
			ins:     &Instruction{ProgramID: memoProgramID, Accounts: accounts},
			wantErr: errors.ErrInput,
		},
		"data too long": {
			ins:     &Instruction{ProgramID: memoProgramID, Data: make([]byte, MaxInstructionData+1)},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.ins.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}

func TestModelPersistence(t *testing.T) {
	db := store.MemStore()
	_, owners := newOwners(2)

	wallets := NewWalletBucket()
	w := NewWallet(owners, 1, 30)
	id, err := wallets.Put(db, nil, w)
	assert.Nil(t, err)
	assert.Equal(t, smallettest.SequenceID(1), id)

	got, err := wallets.GetWallet(db, id)
	assert.Nil(t, err)
	assert.Equal(t, w, got)

	_, err = wallets.GetWallet(db, smallettest.SequenceID(2))
	assert.IsErr(t, errors.ErrNotFound, err)

	txs := NewTransactionBucket()
	tx := &Transaction{
		WalletID:       id,
		Index:          7,
		Proposer:       owners[1],
		Instructions:   []*Instruction{memoInstruction("hello", owners[0])},
		Signers:        []bool{false, true},
		ETA:            NoETA,
		ExecutedAt:     NotExecuted,
		OwnersSnapshot: owners,
	}
	assert.Nil(t, txs.Save(db, tx))
	gotTx, err := txs.GetTransaction(db, id, 7)
	assert.Nil(t, err)
	assert.Equal(t, tx, gotTx)

	_, err = txs.GetTransaction(db, id, 6)
	assert.IsErr(t, errors.ErrNotFound, err)

	// Transactions of a wallet share a key prefix.
	it, err := txs.PrefixScan(db, id, false)
	assert.Nil(t, err)
	defer it.Release()
	var loaded Transaction
	key, err := it.Next(&loaded)
	assert.Nil(t, err)
	assert.Equal(t, TransactionKey(id, 7), key)
	_, err = it.Next(&loaded)
	assert.IsErr(t, errors.ErrIteratorDone, err)
}

func TestTransactionValidate(t *testing.T) {
	_, owners := newOwners(2)
	valid := func() *Transaction {
		return &Transaction{
			WalletID:       smallettest.SequenceID(1),
			Proposer:       owners[0],
			Instructions:   []*Instruction{memoInstruction("a")},
			Signers:        []bool{true, false},
			ETA:            NoETA,
			ExecutedAt:     NotExecuted,
			OwnersSnapshot: owners,
		}
	}

	cases := map[string]struct {
		mutate  func(*Transaction)
		wantErr *errors.Error
	}{
		"valid":            {mutate: func(*Transaction) {}},
		"bad wallet id":    {mutate: func(t *Transaction) { t.WalletID = []byte{1} }, wantErr: errors.ErrModel},
		"no instructions":  {mutate: func(t *Transaction) { t.Instructions = nil }, wantErr: errors.ErrEmpty},
		"signers mismatch": {mutate: func(t *Transaction) { t.Signers = []bool{true} }, wantErr: errors.ErrModel},
		"negative eta":     {mutate: func(t *Transaction) { t.ETA = -5 }, wantErr: errors.ErrModel},
		"executed without executor": {
			mutate:  func(t *Transaction) { t.ExecutedAt = 10 },
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			tx := valid()
			tc.mutate(tx)
			err := tx.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}
