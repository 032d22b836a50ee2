package multisig

import (
	"context"

	"github.com/iov-one/smallet"
)

// EventKind names a change of the wallet state.
type EventKind string

const (
	EventWalletCreated         EventKind = "wallet_created"
	EventOwnerSetChanged       EventKind = "owner_set_changed"
	EventThresholdChanged      EventKind = "threshold_changed"
	EventTransactionCreated    EventKind = "transaction_created"
	EventTransactionApproved   EventKind = "transaction_approved"
	EventTransactionUnapproved EventKind = "transaction_unapproved"
	EventTransactionExecuted   EventKind = "transaction_executed"
)

// Event describes a change that was applied to the state. Only the
// attributes relevant to the kind are set.
type Event struct {
	Kind     EventKind
	WalletID []byte
	// Index of the transaction.
	Index uint64
	// Actor is the owner that caused the change.
	Actor        smallet.Address
	Owners       []smallet.Address
	Threshold    uint32
	MinimumDelay int64
	ETA          int64
	Time         smallet.UnixTime
}

// EventSink receives all events produced by this extension.
type EventSink interface {
	Emit(ctx smallet.Context, e Event)
}

// NopSink drops all events.
type NopSink struct{}

func (NopSink) Emit(smallet.Context, Event) {}

// LogSink writes events to the context logger.
type LogSink struct{}

var _ EventSink = LogSink{}

func (LogSink) Emit(ctx smallet.Context, e Event) {
	keyvals := []interface{}{
		"kind", string(e.Kind),
		"wallet", e.WalletID,
		"time", e.Time,
	}
	switch e.Kind {
	case EventWalletCreated:
		keyvals = append(keyvals, "owners", len(e.Owners), "threshold", e.Threshold, "minimum_delay", e.MinimumDelay)
	case EventOwnerSetChanged:
		keyvals = append(keyvals, "owners", len(e.Owners))
	case EventThresholdChanged:
		keyvals = append(keyvals, "threshold", e.Threshold)
	case EventTransactionCreated:
		keyvals = append(keyvals, "index", e.Index, "proposer", e.Actor, "eta", e.ETA)
	default:
		keyvals = append(keyvals, "index", e.Index, "owner", e.Actor)
	}
	smallet.GetLogger(ctx).Info("multisig event", keyvals...)
}

// MultiSink passes each event to all sinks, in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ctx smallet.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// eventBuffer holds events of an execution until it is known whether the
// execution succeeded.
type eventBuffer struct {
	events []Event
}

// withEventBuffer returns a context collecting all emitted events. If the
// context is already collecting, the existing buffer is used and nil is
// returned, so that only the outermost caller flushes.
func withEventBuffer(ctx smallet.Context) (smallet.Context, *eventBuffer) {
	if _, ok := ctx.Value(contextKeyEvents).(*eventBuffer); ok {
		return ctx, nil
	}
	buf := &eventBuffer{}
	return context.WithValue(ctx, contextKeyEvents, buf), buf
}

func (b *eventBuffer) flush(ctx smallet.Context, sink EventSink) {
	if b == nil {
		return
	}
	for _, e := range b.events {
		sink.Emit(ctx, e)
	}
	b.events = nil
}

// emit passes the event to the sink, unless the context is collecting
// events of an execution that is not finished yet.
func emit(ctx smallet.Context, sink EventSink, e Event) {
	if buf, ok := ctx.Value(contextKeyEvents).(*eventBuffer); ok {
		buf.events = append(buf.events, e)
		return
	}
	sink.Emit(ctx, e)
}
