package main

import (
	"io"
	"math"
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x/multisig"
)

// rawOptions describe a single instruction given on the command line.
type rawOptions struct {
	Raw     []string `long:"raw" description:"Instruction as <program>:<hex data>. May be repeated."`
	Signers []string `long:"signer" description:"Identity marked as signing account of every raw instruction. May be repeated."`
}

func (o rawOptions) instructions() ([]*multisig.Instruction, error) {
	signers, err := parseIdentities(o.Signers)
	if err != nil {
		return nil, err
	}
	var accounts []*multisig.AccountMeta
	for _, s := range signers {
		accounts = append(accounts, &multisig.AccountMeta{Address: s, IsSigner: true, IsWritable: true})
	}
	var res []*multisig.Instruction
	for _, raw := range o.Raw {
		program, data, err := parseRawInstruction(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, &multisig.Instruction{
			ProgramID: program,
			Accounts:  accounts,
			Data:      data,
		})
	}
	return res, nil
}

func cmdPropose(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		t    txOptions
		raw  rawOptions
		opts struct {
			Wallet          uint64   `long:"wallet" required:"true" description:"Wallet ID."`
			SetOwners       []string `long:"set-owners" description:"Propose to replace the owners. Repeat or separate with commas."`
			ChangeThreshold int64    `long:"change-threshold" default:"-1" description:"Propose a new threshold."`
			ETA             string   `long:"eta" description:"Earliest execution time, RFC3339 or unix seconds."`
			Delay           int64    `long:"delay" description:"Earliest execution time relative to the block time, in seconds."`
		}
	)
	if err := parseArgs("propose", args, &opts, &raw, &t, &g); err != nil {
		return err
	}
	id := walletID(opts.Wallet)

	var instructions []*multisig.Instruction
	if len(opts.SetOwners) != 0 {
		owners, err := parseIdentities(opts.SetOwners)
		if err != nil {
			return err
		}
		ins, err := multisig.SetOwnersInstruction(id, owners)
		if err != nil {
			return err
		}
		instructions = append(instructions, ins)
	}
	switch {
	case opts.ChangeThreshold == -1:
		// not requested
	case opts.ChangeThreshold < 0 || opts.ChangeThreshold > math.MaxUint32:
		return errors.Wrapf(errors.ErrInput, "threshold %d out of range", opts.ChangeThreshold)
	default:
		ins, err := multisig.ChangeThresholdInstruction(id, uint32(opts.ChangeThreshold))
		if err != nil {
			return err
		}
		instructions = append(instructions, ins)
	}
	rawIns, err := raw.instructions()
	if err != nil {
		return err
	}
	instructions = append(instructions, rawIns...)
	if len(instructions) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no instruction given")
	}

	eta := multisig.NoETA
	switch {
	case opts.ETA != "" && opts.Delay != 0:
		return errors.Wrap(errors.ErrInput, "eta and delay cannot be used together")
	case opts.ETA != "":
		at, err := parseUnixTime(opts.ETA)
		if err != nil {
			return err
		}
		eta = int64(at)
	case opts.Delay != 0:
		now, err := t.now()
		if err != nil {
			return err
		}
		eta = int64(smallet.AsUnixTime(now).Add(time.Duration(opts.Delay) * time.Second))
	}

	return submitMsg(output, logs, g, t, &multisig.CreateTransactionMsg{
		WalletID:     id,
		Instructions: instructions,
		ETA:          eta,
	})
}

// transactionRef selects a transaction of a wallet.
type transactionRef struct {
	Wallet uint64 `long:"wallet" required:"true" description:"Wallet ID."`
	Index  uint64 `long:"index" required:"true" description:"Transaction index."`
}

func cmdApprove(output, logs io.Writer, args []string) error {
	return approval(output, logs, "approve", args, func(ref transactionRef) smallet.Msg {
		return &multisig.ApproveMsg{WalletID: walletID(ref.Wallet), Index: ref.Index}
	})
}

func cmdUnapprove(output, logs io.Writer, args []string) error {
	return approval(output, logs, "unapprove", args, func(ref transactionRef) smallet.Msg {
		return &multisig.UnapproveMsg{WalletID: walletID(ref.Wallet), Index: ref.Index}
	})
}

func approval(output, logs io.Writer, name string, args []string, build func(transactionRef) smallet.Msg) error {
	var (
		g   globalOptions
		t   txOptions
		ref transactionRef
	)
	if err := parseArgs(name, args, &ref, &t, &g); err != nil {
		return err
	}
	return submitMsg(output, logs, g, t, build(ref))
}

func cmdExecute(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		t    txOptions
		ref  transactionRef
		opts struct {
			Derived int64 `long:"derived" default:"-1" description:"Execute as the derived sub-account with this index."`
		}
	)
	if err := parseArgs("execute", args, &ref, &opts, &t, &g); err != nil {
		return err
	}
	id := walletID(ref.Wallet)
	var msg smallet.Msg = &multisig.ExecuteTransactionMsg{WalletID: id, Index: ref.Index}
	if opts.Derived >= 0 {
		msg = &multisig.ExecuteTransactionDerivedMsg{
			WalletID:     id,
			Index:        ref.Index,
			DerivedIndex: uint64(opts.Derived),
		}
	}
	return submitMsg(output, logs, g, t, msg)
}

func cmdOwnerInvoke(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		t    txOptions
		raw  rawOptions
		opts struct {
			Wallet        uint64 `long:"wallet" required:"true" description:"Wallet ID."`
			Index         uint64 `long:"index" description:"Owner invoker sub-account index."`
			SignAsInvoker bool   `long:"sign-as-invoker" description:"Mark the invoker sub-account as a signer of the instruction."`
		}
	)
	if err := parseArgs("owner-invoke", args, &opts, &raw, &t, &g); err != nil {
		return err
	}
	ins, err := raw.instructions()
	if err != nil {
		return err
	}
	if len(ins) != 1 {
		return errors.Wrapf(errors.ErrInput, "exactly one raw instruction required, got %d", len(ins))
	}
	return submitMsg(output, logs, g, t, &multisig.OwnerInvokeMsg{
		WalletID:      walletID(opts.Wallet),
		Index:         opts.Index,
		Instruction:   ins[0],
		SignAsInvoker: opts.SignAsInvoker,
	})
}
