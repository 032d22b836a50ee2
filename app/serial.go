package app

import (
	"sync"

	"github.com/iov-one/smallet"
)

// Serial is a decorator that allows only a single transaction to pass
// through it at a time. State checks and state writes of a transaction
// cannot interleave with those of another one.
type Serial struct {
	mu *sync.Mutex
}

var _ smallet.Decorator = Serial{}

// NewSerial returns a decorator that serializes all processed transactions.
func NewSerial() Serial {
	return Serial{mu: &sync.Mutex{}}
}

// Check holds the lock for the duration of the wrapped check.
func (s Serial) Check(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Checker) (*smallet.CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return next.Check(ctx, store, tx)
}

// Deliver holds the lock for the duration of the wrapped deliver.
func (s Serial) Deliver(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Deliverer) (*smallet.DeliverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return next.Deliver(ctx, store, tx)
}
