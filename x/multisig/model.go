package multisig

import (
	"bytes"
	"encoding/binary"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/orm"
)

const (
	// NoETA is the ETA of a transaction that is not timelocked.
	NoETA int64 = -1
	// NotExecuted is the ExecutedAt value of a transaction that was not
	// executed yet.
	NotExecuted int64 = -1

	// MaxDelay is the longest allowed timelock, in seconds.
	MaxDelay int64 = 365 * 24 * 60 * 60
	// DefaultGracePeriod is the time after the ETA during which a
	// transaction can still be executed, in seconds.
	DefaultGracePeriod int64 = 14 * 24 * 60 * 60

	// MaxOwners is the largest owner set a wallet can have.
	MaxOwners = 64
	// MaxInstructions is the largest number of instructions a single
	// transaction can carry.
	MaxInstructions = 16
	// MaxInstructionAccounts limits the accounts passed to one instruction.
	MaxInstructionAccounts = 32
	// MaxInstructionData limits the payload of one instruction, in bytes.
	MaxInstructionData = 4096
)

// Wallet is the configuration of a group of owners acting as a single
// identity.
type Wallet struct {
	// Owners is an ordered list of distinct identities.
	Owners []smallet.Address `protobuf:"bytes,1,rep,name=owners,proto3" json:"owners"`
	// Threshold is the number of approvals required to execute a
	// transaction.
	Threshold uint32 `protobuf:"varint,2,opt,name=threshold,proto3" json:"threshold"`
	// MinimumDelay in seconds is the shortest timelock that each
	// transaction must use. Zero disables the timelock requirement.
	MinimumDelay int64 `protobuf:"varint,3,opt,name=minimum_delay,json=minimumDelay,proto3" json:"minimum_delay"`
	// GracePeriod in seconds is the time after the ETA during which a
	// timelocked transaction can be executed.
	GracePeriod int64 `protobuf:"varint,4,opt,name=grace_period,json=gracePeriod,proto3" json:"grace_period"`
	// OwnerSetSeqno is incremented each time the owner set is changed.
	OwnerSetSeqno uint32 `protobuf:"varint,5,opt,name=owner_set_seqno,json=ownerSetSeqno,proto3" json:"owner_set_seqno"`
	// NumTransactions is the number of transactions ever proposed. It is
	// used as the index of the next transaction.
	NumTransactions uint64 `protobuf:"varint,6,opt,name=num_transactions,json=numTransactions,proto3" json:"num_transactions"`
}

var _ orm.Model = (*Wallet)(nil)

// NewWallet returns a wallet configuration that was never changed.
func NewWallet(owners []smallet.Address, threshold uint32, minimumDelay int64) *Wallet {
	return &Wallet{
		Owners:       copyAddresses(owners),
		Threshold:    threshold,
		MinimumDelay: minimumDelay,
		GracePeriod:  DefaultGracePeriod,
	}
}

func (w *Wallet) Validate() error {
	if err := validateOwners(w.Owners); err != nil {
		return err
	}
	if int(w.Threshold) > len(w.Owners) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d with %d owners", w.Threshold, len(w.Owners))
	}
	if err := validateDelay(w.MinimumDelay); err != nil {
		return err
	}
	if w.GracePeriod < 0 {
		return errors.Wrap(errors.ErrModel, "negative grace period")
	}
	return nil
}

// IsOwner returns true if given address belongs to the current owner set.
func (w *Wallet) IsOwner(a smallet.Address) bool {
	return indexOf(w.Owners, a) >= 0
}

// SetOwners replaces the owner set. Threshold is lowered if it cannot be
// satisfied by the new owner set. All transactions proposed before are
// invalidated.
//
// Only an authority granted by this wallet execution can change the owners.
func (w *Wallet) SetOwners(a Authority, walletID []byte, owners []smallet.Address) error {
	if !a.Governs(walletID) {
		return errors.Wrap(errors.ErrUnauthorized, "wallet authority required")
	}
	if err := validateOwners(owners); err != nil {
		return err
	}
	seqno := w.OwnerSetSeqno + 1
	if seqno < w.OwnerSetSeqno {
		return errors.Wrap(errors.ErrOverflow, "owner set sequence")
	}
	if int(w.Threshold) > len(owners) {
		w.Threshold = uint32(len(owners))
	}
	w.Owners = copyAddresses(owners)
	w.OwnerSetSeqno = seqno
	return nil
}

// ChangeThreshold sets the number of approvals required to execute a
// transaction. Transactions proposed before remain valid.
//
// Only an authority granted by this wallet execution can change the
// threshold.
func (w *Wallet) ChangeThreshold(a Authority, walletID []byte, threshold uint32) error {
	if !a.Governs(walletID) {
		return errors.Wrap(errors.ErrUnauthorized, "wallet authority required")
	}
	if int(threshold) > len(w.Owners) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d with %d owners", threshold, len(w.Owners))
	}
	w.Threshold = threshold
	return nil
}

// nextIndex allocates the index of a new transaction.
func (w *Wallet) nextIndex() (uint64, error) {
	index := w.NumTransactions
	if index+1 < index {
		return 0, errors.Wrap(errors.ErrOverflow, "transaction count")
	}
	w.NumTransactions = index + 1
	return index, nil
}

func validateOwners(owners []smallet.Address) error {
	if len(owners) == 0 {
		return errors.Wrap(errors.ErrEmpty, "owners")
	}
	if len(owners) > MaxOwners {
		return errors.Wrapf(ErrInvalidOwner, "too many owners, max %d", MaxOwners)
	}
	seen := make(map[string]struct{}, len(owners))
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidOwner, "owner %d: %s", i, err)
		}
		if _, ok := seen[string(o)]; ok {
			return errors.Wrapf(ErrInvalidOwner, "duplicated owner %s", o)
		}
		seen[string(o)] = struct{}{}
	}
	return nil
}

func validateDelay(delay int64) error {
	if delay < 0 {
		return errors.Wrap(ErrInvalidETA, "negative delay")
	}
	if delay >= MaxDelay {
		return errors.Wrapf(ErrDelayTooHigh, "delay must be less than %d seconds", MaxDelay)
	}
	return nil
}

// Transaction is a list of instructions proposed for execution on behalf of
// a wallet.
type Transaction struct {
	WalletID []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	// Index is the sequential number of the transaction within the wallet.
	Index        uint64           `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
	Proposer     smallet.Address  `protobuf:"bytes,3,opt,name=proposer,proto3" json:"proposer"`
	Instructions []*Instruction   `protobuf:"bytes,4,rep,name=instructions,proto3" json:"instructions"`
	// Signers has an entry for each owner in OwnersSnapshot. An entry is
	// true if the owner at the same position approved the transaction.
	Signers []bool `protobuf:"varint,5,rep,packed,name=signers,proto3" json:"signers"`
	// OwnerSetSeqno is the wallet sequence at the time of the proposal.
	OwnerSetSeqno uint32 `protobuf:"varint,6,opt,name=owner_set_seqno,json=ownerSetSeqno,proto3" json:"owner_set_seqno"`
	// ETA is the earliest execution time or NoETA.
	ETA        int64           `protobuf:"varint,7,opt,name=eta,proto3" json:"eta"`
	Executor   smallet.Address `protobuf:"bytes,8,opt,name=executor,proto3" json:"executor,omitempty"`
	ExecutedAt int64           `protobuf:"varint,9,opt,name=executed_at,json=executedAt,proto3" json:"executed_at"`
	// OwnersSnapshot is the owner set the Signers list was built against.
	OwnersSnapshot []smallet.Address `protobuf:"bytes,10,rep,name=owners_snapshot,json=ownersSnapshot,proto3" json:"owners_snapshot"`
}

var _ orm.Model = (*Transaction)(nil)

func (t *Transaction) Validate() error {
	if len(t.WalletID) != 8 {
		return errors.Wrap(errors.ErrModel, "wallet id must be 8 bytes")
	}
	if err := t.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if err := validateInstructions(t.Instructions); err != nil {
		return err
	}
	if len(t.OwnersSnapshot) == 0 {
		return errors.Wrap(errors.ErrModel, "missing owners snapshot")
	}
	if len(t.Signers) != len(t.OwnersSnapshot) {
		return errors.Wrapf(errors.ErrModel, "%d signers for %d owners", len(t.Signers), len(t.OwnersSnapshot))
	}
	if t.ETA != NoETA && t.ETA < 0 {
		return errors.Wrap(errors.ErrModel, "negative eta")
	}
	if t.ExecutedAt != NotExecuted {
		if t.ExecutedAt < 0 {
			return errors.Wrap(errors.ErrModel, "negative execution time")
		}
		if err := t.Executor.Validate(); err != nil {
			return errors.Wrap(err, "executor")
		}
	}
	return nil
}

// IsExecuted returns true if the transaction was executed.
func (t *Transaction) IsExecuted() bool {
	return t.ExecutedAt != NotExecuted
}

// NumSigners returns the number of owners that approved the transaction.
func (t *Transaction) NumSigners() int {
	var n int
	for _, s := range t.Signers {
		if s {
			n++
		}
	}
	return n
}

// checkPending returns an error unless approvals of the transaction can
// still be changed or the transaction can still be executed.
func (t *Transaction) checkPending(walletID []byte, w *Wallet) error {
	if !bytes.Equal(t.WalletID, walletID) {
		return errors.Wrap(errors.ErrInput, "transaction does not belong to the wallet")
	}
	if t.OwnerSetSeqno != w.OwnerSetSeqno {
		return errors.Wrapf(ErrOwnerSetChanged, "proposed with owner set %d, current is %d", t.OwnerSetSeqno, w.OwnerSetSeqno)
	}
	if t.IsExecuted() {
		return errors.Wrapf(ErrAlreadyExecuted, "executed at %d", t.ExecutedAt)
	}
	return nil
}

// ownerIndex returns the position of the owner in the signers list.
//
// The position is resolved against the owner snapshot. The live owner set
// must still be the one the snapshot was taken of, position for position.
// Otherwise the signers list cannot be mapped to the current owners.
func (t *Transaction) ownerIndex(live []smallet.Address, owner smallet.Address) (int, error) {
	pos := indexOf(t.OwnersSnapshot, owner)
	if pos < 0 {
		return 0, errors.Wrapf(ErrInvalidOwner, "%s is not an owner", owner)
	}
	if len(live) != len(t.OwnersSnapshot) || !live[pos].Equals(owner) {
		return 0, errors.Wrap(ErrOwnerSetChanged, "owner positions changed")
	}
	return pos, nil
}

// SetApproval marks the approval of given owner. Setting an approval to the
// value it already has is a no-op.
func (t *Transaction) SetApproval(walletID []byte, w *Wallet, owner smallet.Address, approved bool) error {
	if err := t.checkPending(walletID, w); err != nil {
		return err
	}
	pos, err := t.ownerIndex(w.Owners, owner)
	if err != nil {
		return err
	}
	t.Signers[pos] = approved
	return nil
}

// TxState describes where in its lifecycle a transaction is.
type TxState int

const (
	// Proposed transactions wait for approvals or for the ETA.
	Proposed TxState = iota
	Executable
	Executed
	// Stale transactions were not executed within the grace period.
	Stale
	// OwnerSetInvalidated transactions were proposed for a previous owner
	// set.
	OwnerSetInvalidated
)

func (s TxState) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case Executable:
		return "executable"
	case Executed:
		return "executed"
	case Stale:
		return "stale"
	case OwnerSetInvalidated:
		return "owner_set_invalidated"
	default:
		return "unknown"
	}
}

// State returns the state of the transaction at given time.
func (t *Transaction) State(w *Wallet, now smallet.UnixTime) TxState {
	switch {
	case t.IsExecuted():
		return Executed
	case t.OwnerSetSeqno != w.OwnerSetSeqno:
		return OwnerSetInvalidated
	case t.ETA != NoETA && now.Sub(smallet.UnixTime(t.ETA)) < 0:
		return Proposed
	case t.ETA != NoETA && now.Sub(smallet.UnixTime(t.ETA)) > w.GracePeriod:
		return Stale
	case t.NumSigners() < int(w.Threshold):
		return Proposed
	default:
		return Executable
	}
}

// Instruction is a single call dispatched on behalf of the wallet.
type Instruction struct {
	// ProgramID is the address of the program handling the instruction.
	ProgramID smallet.Address `protobuf:"bytes,1,opt,name=program_id,json=programId,proto3" json:"program_id"`
	Accounts  []*AccountMeta  `protobuf:"bytes,2,rep,name=accounts,proto3" json:"accounts"`
	// Data is the payload decoded by the program.
	Data []byte `protobuf:"bytes,3,opt,name=data,proto3" json:"data"`
}

func (i *Instruction) Validate() error {
	if i == nil {
		return errors.Wrap(errors.ErrEmpty, "instruction")
	}
	if err := i.ProgramID.Validate(); err != nil {
		return errors.Wrap(err, "program id")
	}
	if len(i.Accounts) > MaxInstructionAccounts {
		return errors.Wrapf(errors.ErrInput, "too many accounts, max %d", MaxInstructionAccounts)
	}
	for n, a := range i.Accounts {
		if a == nil {
			return errors.Wrapf(errors.ErrEmpty, "account %d", n)
		}
		if err := a.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", n)
		}
	}
	if len(i.Data) > MaxInstructionData {
		return errors.Wrapf(errors.ErrInput, "data too long, max %d bytes", MaxInstructionData)
	}
	return nil
}

// AccountMeta describes how an instruction is using an account.
type AccountMeta struct {
	Address    smallet.Address `protobuf:"bytes,1,opt,name=address,proto3" json:"address"`
	IsSigner   bool            `protobuf:"varint,2,opt,name=is_signer,json=isSigner,proto3" json:"is_signer"`
	IsWritable bool            `protobuf:"varint,3,opt,name=is_writable,json=isWritable,proto3" json:"is_writable"`
}

func validateInstructions(ins []*Instruction) error {
	if len(ins) == 0 {
		return errors.Wrap(errors.ErrEmpty, "instructions")
	}
	if len(ins) > MaxInstructions {
		return errors.Wrapf(errors.ErrInput, "too many instructions, max %d", MaxInstructions)
	}
	for n, i := range ins {
		if err := i.Validate(); err != nil {
			return errors.Wrapf(err, "instruction %d", n)
		}
	}
	return nil
}

// SubaccountInfo is a reverse lookup of an address derived from a wallet.
type SubaccountInfo struct {
	WalletID []byte         `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Kind     SubaccountKind `protobuf:"varint,2,opt,name=kind,proto3" json:"kind"`
	Index    uint64         `protobuf:"varint,3,opt,name=index,proto3" json:"index"`
}

var _ orm.Model = (*SubaccountInfo)(nil)

func (s *SubaccountInfo) Validate() error {
	if len(s.WalletID) != 8 {
		return errors.Wrap(errors.ErrModel, "wallet id must be 8 bytes")
	}
	return s.Kind.Validate()
}

// WalletBucket stores wallets under sequential IDs.
type WalletBucket struct {
	orm.ModelBucket
}

func NewWalletBucket() WalletBucket {
	return WalletBucket{
		ModelBucket: orm.NewModelBucket("wallet", &Wallet{}),
	}
}

// GetWallet returns the wallet with given ID.
func (b WalletBucket) GetWallet(db smallet.ReadOnlyKVStore, id []byte) (*Wallet, error) {
	var w Wallet
	if err := b.One(db, id, &w); err != nil {
		return nil, errors.Wrapf(err, "wallet %X", id)
	}
	return &w, nil
}

// TransactionBucket stores transactions under a key made of the wallet ID
// and the transaction index, so that all transactions of a wallet share a
// prefix.
type TransactionBucket struct {
	orm.ModelBucket
}

func NewTransactionBucket() TransactionBucket {
	return TransactionBucket{
		ModelBucket: orm.NewModelBucket("tx", &Transaction{}),
	}
}

// TransactionKey returns the key of the transaction with given index.
func TransactionKey(walletID []byte, index uint64) []byte {
	key := make([]byte, len(walletID)+8)
	copy(key, walletID)
	binary.BigEndian.PutUint64(key[len(walletID):], index)
	return key
}

// GetTransaction returns the transaction of given wallet and index.
func (b TransactionBucket) GetTransaction(db smallet.ReadOnlyKVStore, walletID []byte, index uint64) (*Transaction, error) {
	var t Transaction
	if err := b.One(db, TransactionKey(walletID, index), &t); err != nil {
		return nil, errors.Wrapf(err, "transaction %X/%d", walletID, index)
	}
	return &t, nil
}

// Save stores the transaction under its wallet and index.
func (b TransactionBucket) Save(db smallet.KVStore, t *Transaction) error {
	_, err := b.Put(db, TransactionKey(t.WalletID, t.Index), t)
	return err
}

// SubaccountBucket stores SubaccountInfo under the sub-account address.
type SubaccountBucket struct {
	orm.ModelBucket
}

func NewSubaccountBucket() SubaccountBucket {
	return SubaccountBucket{
		ModelBucket: orm.NewModelBucket("subaccount", &SubaccountInfo{}),
	}
}

func indexOf(owners []smallet.Address, a smallet.Address) int {
	for i, o := range owners {
		if o.Equals(a) {
			return i
		}
	}
	return -1
}

func copyAddresses(addrs []smallet.Address) []smallet.Address {
	res := make([]smallet.Address, len(addrs))
	for i, a := range addrs {
		res[i] = append(smallet.Address(nil), a...)
	}
	return res
}
