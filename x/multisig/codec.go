package multisig

import (
	"github.com/gogo/protobuf/proto"
)

// Each persisted type has a codec twin sharing its memory layout. The twin
// implements proto.Message and is serialized using the protobuf struct
// tags, while the public type keeps the Marshal/Unmarshal pair required by
// smallet.Persistent.

type walletCodec Wallet

func (m *walletCodec) Reset()         { *m = walletCodec{} }
func (m *walletCodec) String() string { return proto.CompactTextString(m) }
func (*walletCodec) ProtoMessage()    {}

func (w *Wallet) Marshal() ([]byte, error) { return proto.Marshal((*walletCodec)(w)) }
func (w *Wallet) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*walletCodec)(w))
}

type transactionCodec Transaction

func (m *transactionCodec) Reset()         { *m = transactionCodec{} }
func (m *transactionCodec) String() string { return proto.CompactTextString(m) }
func (*transactionCodec) ProtoMessage()    {}

func (t *Transaction) Marshal() ([]byte, error) { return proto.Marshal((*transactionCodec)(t)) }
func (t *Transaction) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*transactionCodec)(t))
}

type subaccountInfoCodec SubaccountInfo

func (m *subaccountInfoCodec) Reset()         { *m = subaccountInfoCodec{} }
func (m *subaccountInfoCodec) String() string { return proto.CompactTextString(m) }
func (*subaccountInfoCodec) ProtoMessage()    {}

func (s *SubaccountInfo) Marshal() ([]byte, error) { return proto.Marshal((*subaccountInfoCodec)(s)) }
func (s *SubaccountInfo) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*subaccountInfoCodec)(s))
}

type createWalletCodec CreateWalletMsg

func (m *createWalletCodec) Reset()         { *m = createWalletCodec{} }
func (m *createWalletCodec) String() string { return proto.CompactTextString(m) }
func (*createWalletCodec) ProtoMessage()    {}

func (m *CreateWalletMsg) Marshal() ([]byte, error) { return proto.Marshal((*createWalletCodec)(m)) }
func (m *CreateWalletMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*createWalletCodec)(m))
}

type setOwnersCodec SetOwnersMsg

func (m *setOwnersCodec) Reset()         { *m = setOwnersCodec{} }
func (m *setOwnersCodec) String() string { return proto.CompactTextString(m) }
func (*setOwnersCodec) ProtoMessage()    {}

func (m *SetOwnersMsg) Marshal() ([]byte, error) { return proto.Marshal((*setOwnersCodec)(m)) }
func (m *SetOwnersMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*setOwnersCodec)(m))
}

type changeThresholdCodec ChangeThresholdMsg

func (m *changeThresholdCodec) Reset()         { *m = changeThresholdCodec{} }
func (m *changeThresholdCodec) String() string { return proto.CompactTextString(m) }
func (*changeThresholdCodec) ProtoMessage()    {}

func (m *ChangeThresholdMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*changeThresholdCodec)(m))
}
func (m *ChangeThresholdMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*changeThresholdCodec)(m))
}

type walletActionCodec WalletAction

func (m *walletActionCodec) Reset()         { *m = walletActionCodec{} }
func (m *walletActionCodec) String() string { return proto.CompactTextString(m) }
func (*walletActionCodec) ProtoMessage()    {}

func (m *WalletAction) Marshal() ([]byte, error) { return proto.Marshal((*walletActionCodec)(m)) }
func (m *WalletAction) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*walletActionCodec)(m))
}

type createTransactionCodec CreateTransactionMsg

func (m *createTransactionCodec) Reset()         { *m = createTransactionCodec{} }
func (m *createTransactionCodec) String() string { return proto.CompactTextString(m) }
func (*createTransactionCodec) ProtoMessage()    {}

func (m *CreateTransactionMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*createTransactionCodec)(m))
}
func (m *CreateTransactionMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*createTransactionCodec)(m))
}

type approveCodec ApproveMsg

func (m *approveCodec) Reset()         { *m = approveCodec{} }
func (m *approveCodec) String() string { return proto.CompactTextString(m) }
func (*approveCodec) ProtoMessage()    {}

func (m *ApproveMsg) Marshal() ([]byte, error) { return proto.Marshal((*approveCodec)(m)) }
func (m *ApproveMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*approveCodec)(m))
}

type unapproveCodec UnapproveMsg

func (m *unapproveCodec) Reset()         { *m = unapproveCodec{} }
func (m *unapproveCodec) String() string { return proto.CompactTextString(m) }
func (*unapproveCodec) ProtoMessage()    {}

func (m *UnapproveMsg) Marshal() ([]byte, error) { return proto.Marshal((*unapproveCodec)(m)) }
func (m *UnapproveMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*unapproveCodec)(m))
}

type executeCodec ExecuteTransactionMsg

func (m *executeCodec) Reset()         { *m = executeCodec{} }
func (m *executeCodec) String() string { return proto.CompactTextString(m) }
func (*executeCodec) ProtoMessage()    {}

func (m *ExecuteTransactionMsg) Marshal() ([]byte, error) { return proto.Marshal((*executeCodec)(m)) }
func (m *ExecuteTransactionMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*executeCodec)(m))
}

type executeDerivedCodec ExecuteTransactionDerivedMsg

func (m *executeDerivedCodec) Reset()         { *m = executeDerivedCodec{} }
func (m *executeDerivedCodec) String() string { return proto.CompactTextString(m) }
func (*executeDerivedCodec) ProtoMessage()    {}

func (m *ExecuteTransactionDerivedMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*executeDerivedCodec)(m))
}
func (m *ExecuteTransactionDerivedMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*executeDerivedCodec)(m))
}

type ownerInvokeCodec OwnerInvokeMsg

func (m *ownerInvokeCodec) Reset()         { *m = ownerInvokeCodec{} }
func (m *ownerInvokeCodec) String() string { return proto.CompactTextString(m) }
func (*ownerInvokeCodec) ProtoMessage()    {}

func (m *OwnerInvokeMsg) Marshal() ([]byte, error) { return proto.Marshal((*ownerInvokeCodec)(m)) }
func (m *OwnerInvokeMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*ownerInvokeCodec)(m))
}

type createSubaccountInfoCodec CreateSubaccountInfoMsg

func (m *createSubaccountInfoCodec) Reset()         { *m = createSubaccountInfoCodec{} }
func (m *createSubaccountInfoCodec) String() string { return proto.CompactTextString(m) }
func (*createSubaccountInfoCodec) ProtoMessage()    {}

func (m *CreateSubaccountInfoMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*createSubaccountInfoCodec)(m))
}
func (m *CreateSubaccountInfoMsg) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*createSubaccountInfoCodec)(m))
}
