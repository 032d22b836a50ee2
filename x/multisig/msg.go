package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

const (
	pathCreateWalletMsg              = "multisig/create_wallet"
	pathSetOwnersMsg                 = "multisig/set_owners"
	pathChangeThresholdMsg           = "multisig/change_threshold"
	pathCreateTransactionMsg         = "multisig/create_transaction"
	pathApproveMsg                   = "multisig/approve"
	pathUnapproveMsg                 = "multisig/unapprove"
	pathExecuteTransactionMsg        = "multisig/execute_transaction"
	pathExecuteTransactionDerivedMsg = "multisig/execute_transaction_derived"
	pathOwnerInvokeMsg               = "multisig/owner_invoke"
	pathCreateSubaccountInfoMsg      = "multisig/create_subaccount_info"
)

// CreateWalletMsg creates a new wallet.
type CreateWalletMsg struct {
	Owners       []smallet.Address `protobuf:"bytes,1,rep,name=owners,proto3" json:"owners"`
	Threshold    uint32            `protobuf:"varint,2,opt,name=threshold,proto3" json:"threshold"`
	MinimumDelay int64             `protobuf:"varint,3,opt,name=minimum_delay,json=minimumDelay,proto3" json:"minimum_delay"`
}

var _ smallet.Msg = (*CreateWalletMsg)(nil)

func (CreateWalletMsg) Path() string {
	return pathCreateWalletMsg
}

func (m *CreateWalletMsg) Validate() error {
	return NewWallet(m.Owners, m.Threshold, m.MinimumDelay).Validate()
}

// SetOwnersMsg replaces the owner set of a wallet. It is accepted only as an
// instruction of a transaction executed by the same wallet.
type SetOwnersMsg struct {
	WalletID []byte            `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Owners   []smallet.Address `protobuf:"bytes,2,rep,name=owners,proto3" json:"owners"`
}

var _ smallet.Msg = (*SetOwnersMsg)(nil)

func (SetOwnersMsg) Path() string {
	return pathSetOwnersMsg
}

func (m *SetOwnersMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	return validateOwners(m.Owners)
}

// ChangeThresholdMsg sets the threshold of a wallet. It is accepted only as
// an instruction of a transaction executed by the same wallet.
type ChangeThresholdMsg struct {
	WalletID  []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Threshold uint32 `protobuf:"varint,2,opt,name=threshold,proto3" json:"threshold"`
}

var _ smallet.Msg = (*ChangeThresholdMsg)(nil)

func (ChangeThresholdMsg) Path() string {
	return pathChangeThresholdMsg
}

func (m *ChangeThresholdMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// WalletAction is the payload of instructions handled by the wallet
// program. Exactly one action must be set.
type WalletAction struct {
	SetOwners       *SetOwnersMsg       `protobuf:"bytes,1,opt,name=set_owners,json=setOwners,proto3" json:"set_owners,omitempty"`
	ChangeThreshold *ChangeThresholdMsg `protobuf:"bytes,2,opt,name=change_threshold,json=changeThreshold,proto3" json:"change_threshold,omitempty"`
}

// Msg returns the only message the action carries.
func (a *WalletAction) Msg() (smallet.Msg, error) {
	switch {
	case a.SetOwners != nil && a.ChangeThreshold != nil:
		return nil, errors.Wrap(errors.ErrInput, "more than one action")
	case a.SetOwners != nil:
		return a.SetOwners, nil
	case a.ChangeThreshold != nil:
		return a.ChangeThreshold, nil
	default:
		return nil, errors.Wrap(errors.ErrEmpty, "no action")
	}
}

// SetOwnersInstruction returns an instruction replacing the owner set of
// the wallet.
func SetOwnersInstruction(walletID []byte, owners []smallet.Address) (*Instruction, error) {
	return walletInstruction(walletID, &WalletAction{
		SetOwners: &SetOwnersMsg{WalletID: walletID, Owners: owners},
	})
}

// ChangeThresholdInstruction returns an instruction changing the threshold
// of the wallet.
func ChangeThresholdInstruction(walletID []byte, threshold uint32) (*Instruction, error) {
	return walletInstruction(walletID, &WalletAction{
		ChangeThreshold: &ChangeThresholdMsg{WalletID: walletID, Threshold: threshold},
	})
}

func walletInstruction(walletID []byte, action *WalletAction) (*Instruction, error) {
	data, err := action.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize action")
	}
	return &Instruction{
		ProgramID: WalletProgramID,
		Accounts: []*AccountMeta{
			{Address: WalletAddress(walletID), IsSigner: true, IsWritable: true},
		},
		Data: data,
	}, nil
}

// DecodeWalletAction returns the message carried by a wallet program
// instruction.
func DecodeWalletAction(data []byte) (smallet.Msg, error) {
	var action WalletAction
	if err := action.Unmarshal(data); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode wallet action: %s", err)
	}
	return action.Msg()
}

// CreateTransactionMsg proposes a list of instructions for execution.
type CreateTransactionMsg struct {
	WalletID     []byte         `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Instructions []*Instruction `protobuf:"bytes,2,rep,name=instructions,proto3" json:"instructions"`
	// ETA is the earliest execution time or NoETA.
	ETA int64 `protobuf:"varint,3,opt,name=eta,proto3" json:"eta"`
}

var _ smallet.Msg = (*CreateTransactionMsg)(nil)

func (CreateTransactionMsg) Path() string {
	return pathCreateTransactionMsg
}

func (m *CreateTransactionMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	if m.ETA != NoETA && m.ETA < 0 {
		return errors.Wrap(ErrInvalidETA, "eta must not be negative")
	}
	return validateInstructions(m.Instructions)
}

// ApproveMsg adds the signer approval of the transaction.
type ApproveMsg struct {
	WalletID []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index    uint64 `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
}

var _ smallet.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string {
	return pathApproveMsg
}

func (m *ApproveMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// UnapproveMsg withdraws the signer approval of the transaction.
type UnapproveMsg struct {
	WalletID []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index    uint64 `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
}

var _ smallet.Msg = (*UnapproveMsg)(nil)

func (UnapproveMsg) Path() string {
	return pathUnapproveMsg
}

func (m *UnapproveMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// ExecuteTransactionMsg executes the transaction acting as the wallet.
type ExecuteTransactionMsg struct {
	WalletID []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index    uint64 `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
}

var _ smallet.Msg = (*ExecuteTransactionMsg)(nil)

func (ExecuteTransactionMsg) Path() string {
	return pathExecuteTransactionMsg
}

func (m *ExecuteTransactionMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// ExecuteTransactionDerivedMsg executes the transaction acting as a derived
// sub-account of the wallet.
type ExecuteTransactionDerivedMsg struct {
	WalletID     []byte `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index        uint64 `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
	DerivedIndex uint64 `protobuf:"varint,3,opt,name=derived_index,json=derivedIndex,proto3" json:"derived_index"`
}

var _ smallet.Msg = (*ExecuteTransactionDerivedMsg)(nil)

func (ExecuteTransactionDerivedMsg) Path() string {
	return pathExecuteTransactionDerivedMsg
}

func (m *ExecuteTransactionDerivedMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// OwnerInvokeMsg dispatches a single instruction acting as an owner invoker
// sub-account. Any owner can do it without approvals.
type OwnerInvokeMsg struct {
	WalletID    []byte       `protobuf:"bytes,1,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index       uint64       `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
	Instruction *Instruction `protobuf:"bytes,3,opt,name=instruction,proto3" json:"instruction"`
	// SignAsInvoker marks all instruction accounts of the invoker address
	// as signers.
	SignAsInvoker bool `protobuf:"varint,4,opt,name=sign_as_invoker,json=signAsInvoker,proto3" json:"sign_as_invoker"`
}

var _ smallet.Msg = (*OwnerInvokeMsg)(nil)

func (OwnerInvokeMsg) Path() string {
	return pathOwnerInvokeMsg
}

func (m *OwnerInvokeMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	if err := m.Instruction.Validate(); err != nil {
		return errors.Wrap(err, "instruction")
	}
	return nil
}

// CreateSubaccountInfoMsg stores a reverse lookup of a wallet sub-account.
type CreateSubaccountInfoMsg struct {
	Subaccount smallet.Address `protobuf:"bytes,1,opt,name=subaccount,proto3" json:"subaccount"`
	WalletID   []byte          `protobuf:"bytes,2,opt,name=wallet_id,json=walletId,proto3" json:"wallet_id"`
	Index      uint64          `protobuf:"varint,3,opt,name=index,proto3" json:"index"`
	Kind       SubaccountKind  `protobuf:"varint,4,opt,name=kind,proto3" json:"kind"`
}

var _ smallet.Msg = (*CreateSubaccountInfoMsg)(nil)

func (CreateSubaccountInfoMsg) Path() string {
	return pathCreateSubaccountInfoMsg
}

func (m *CreateSubaccountInfoMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Subaccount", m.Subaccount.Validate())
	errs = errors.AppendField(errs, "WalletID", validateWalletID(m.WalletID))
	errs = errors.AppendField(errs, "Kind", m.Kind.Validate())
	return errs
}

func validateWalletID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrap(errors.ErrInput, "wallet id must be 8 bytes")
	}
	return nil
}
