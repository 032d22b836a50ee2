package multisig

import (
	"encoding/binary"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"golang.org/x/crypto/blake2b"
)

// SubaccountKind tells how a sub-account address was derived from a wallet.
type SubaccountKind int32

const (
	// Derived sub-accounts act only through transactions executed with
	// the full wallet approval.
	Derived SubaccountKind = 1
	// OwnerInvoker sub-accounts act through a single owner, without
	// approvals or timelock.
	OwnerInvoker SubaccountKind = 2
)

func (k SubaccountKind) Validate() error {
	switch k {
	case Derived, OwnerInvoker:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "unknown subaccount kind %d", k)
	}
}

func (k SubaccountKind) String() string {
	switch k {
	case Derived:
		return "derived"
	case OwnerInvoker:
		return "owner_invoker"
	default:
		return "unknown"
	}
}

// ParseSubaccountKind returns the kind for its String form.
func ParseSubaccountKind(s string) (SubaccountKind, error) {
	switch s {
	case "derived":
		return Derived, nil
	case "owner_invoker":
		return OwnerInvoker, nil
	default:
		return 0, errors.Wrapf(errors.ErrInput, "unknown subaccount kind %q", s)
	}
}

func (k SubaccountKind) seed() string {
	switch k {
	case Derived:
		return "SmalletDerived"
	case OwnerInvoker:
		return "SmalletOwnerInvoker"
	}
	return ""
}

// DeriveAddress returns the address of a sub-account of the wallet. The
// same input always produces the same address and different inputs never
// share an address.
func DeriveAddress(wallet smallet.Address, kind SubaccountKind, index uint64) (smallet.Address, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := wallet.Validate(); err != nil {
		return nil, errors.Wrap(err, "wallet")
	}
	seed := make([]byte, 0, len(kind.seed())+len(wallet)+8)
	seed = append(seed, kind.seed()...)
	seed = append(seed, wallet...)
	seed = append(seed, make([]byte, 8)...)
	binary.LittleEndian.PutUint64(seed[len(seed)-8:], index)

	hash := blake2b.Sum256(seed)
	return smallet.Address(hash[:smallet.AddressLength]), nil
}

// WalletCondition returns the condition of the wallet with given ID. It is
// granted to the instructions of the executed wallet transactions.
func WalletCondition(id []byte) smallet.Condition {
	return smallet.NewCondition("multisig", "wallet", id)
}

// WalletAddress returns the identity of the wallet with given ID.
func WalletAddress(id []byte) smallet.Address {
	return WalletCondition(id).Address()
}

// WalletProgramID is the program address of instructions that change a
// wallet configuration.
var WalletProgramID = smallet.NewCondition("multisig", "program", []byte("wallet")).Address()
