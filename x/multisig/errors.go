package multisig

import "github.com/iov-one/smallet/errors"

var (
	// ErrInvalidOwner is returned when an identity is not a current owner
	// of the wallet or when an owner list is malformed.
	ErrInvalidOwner = errors.Register(1030, "invalid owner")

	// ErrInvalidThreshold is returned when the threshold cannot be
	// satisfied by the owner set.
	ErrInvalidThreshold = errors.Register(1031, "invalid threshold")

	// ErrInvalidETA is returned when the execution time of a transaction
	// does not satisfy the wallet timelock.
	ErrInvalidETA = errors.Register(1032, "invalid eta")

	// ErrDelayTooHigh is returned when a delay exceeds the maximum.
	ErrDelayTooHigh = errors.Register(1033, "delay too high")

	ErrNotEnoughSigners = errors.Register(1034, "not enough signers")

	// ErrTransactionNotReady is returned when the transaction eta was not
	// reached yet.
	ErrTransactionNotReady = errors.Register(1035, "transaction not ready")

	// ErrTransactionIsStale is returned when the grace period after the
	// transaction eta elapsed. Stale transactions can never be executed.
	ErrTransactionIsStale = errors.Register(1036, "transaction is stale")

	ErrAlreadyExecuted = errors.Register(1037, "already executed")

	// ErrOwnerSetChanged is returned for any transaction proposed before
	// the current owner set was configured. This state is permanent and a
	// new transaction must be proposed.
	ErrOwnerSetChanged = errors.Register(1038, "owner set changed")

	// ErrSubaccountOwnerMismatch is returned when a sub-account address is
	// not derived from the declared wallet and index.
	ErrSubaccountOwnerMismatch = errors.Register(1039, "subaccount owner mismatch")
)
