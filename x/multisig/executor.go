package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x"
)

// Executor dispatches instructions on behalf of an authority present in the
// context. Instructions are dispatched in order and the first failure
// aborts the whole batch. The caller is responsible for discarding the
// changes of a failed batch.
type Executor interface {
	Execute(ctx smallet.Context, db smallet.KVStore, ins []*Instruction) (*smallet.DeliverResult, error)
}

// InstructionDecoder is needed to parse the instruction data.
type InstructionDecoder func(data []byte) (smallet.Msg, error)

type program struct {
	handler smallet.Handler
	decode  InstructionDecoder
}

// ProgramExecutor delivers each instruction to the handler registered for
// its program ID.
type ProgramExecutor struct {
	auth     x.Authenticator
	programs map[string]program
}

var _ Executor = (*ProgramExecutor)(nil)

// NewProgramExecutor returns an executor without any program registered.
// Authenticator is used to ensure that all signer accounts of an
// instruction are authorized in the dispatch context.
func NewProgramExecutor(auth x.Authenticator) *ProgramExecutor {
	return &ProgramExecutor{
		auth:     auth,
		programs: make(map[string]program),
	}
}

// Register routes instructions with given program ID to the handler. It
// panics if the program ID is already registered.
func (e *ProgramExecutor) Register(programID smallet.Address, h smallet.Handler, decode InstructionDecoder) {
	if _, ok := e.programs[string(programID)]; ok {
		panic("program already registered: " + programID.String())
	}
	e.programs[string(programID)] = program{handler: h, decode: decode}
}

func (e *ProgramExecutor) Execute(ctx smallet.Context, db smallet.KVStore, ins []*Instruction) (*smallet.DeliverResult, error) {
	res := &smallet.DeliverResult{}
	for n, i := range ins {
		p, ok := e.programs[string(i.ProgramID)]
		if !ok {
			return nil, errors.Wrapf(errors.ErrNotFound, "instruction %d: unknown program %s", n, i.ProgramID)
		}
		for k, acc := range i.Accounts {
			if acc.IsSigner && !e.auth.HasAddress(ctx, acc.Address) {
				return nil, errors.Wrapf(errors.ErrUnauthorized, "instruction %d: account %d (%s) cannot sign", n, k, acc.Address)
			}
		}
		msg, err := p.decode(i.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", n)
		}
		r, err := p.handler.Deliver(ctx, db, &instructionTx{msg: msg, instruction: i})
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", n)
		}
		if r != nil {
			res.Tags = append(res.Tags, r.Tags...)
			res.GasUsed += r.GasUsed
		}
	}
	return res, nil
}

// instructionTx wraps the decoded instruction data in a Tx to satisfy the
// Handler interface.
type instructionTx struct {
	msg         smallet.Msg
	instruction *Instruction
}

var _ smallet.Tx = (*instructionTx)(nil)

func (tx *instructionTx) GetMsg() (smallet.Msg, error) {
	return tx.msg, nil
}

// InstructionOf returns the instruction a transaction was dispatched from,
// or nil if the transaction did not come from an executor.
func InstructionOf(tx smallet.Tx) *Instruction {
	if itx, ok := tx.(*instructionTx); ok {
		return itx.instruction
	}
	return nil
}
