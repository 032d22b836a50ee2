package utils

import (
	"github.com/iov-one/smallet"
)

// ActionTagger will inspect the message being executed and
// add a tag `action = msg.Path()`, so that every delivery result can be
// searched by the kind of operation it performed.
type ActionTagger struct{}

var _ smallet.Decorator = ActionTagger{}

// ActionKey is used by ActionTagger as the Key in the Tag it appends
const ActionKey = "action"

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx, next smallet.Checker) (*smallet.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends a tag on the result if there is a success.
func (ActionTagger) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx, next smallet.Deliverer) (*smallet.DeliverResult, error) {
	// if we error in reporting, let's do so early before dispatching
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}

	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.AddTag([]byte(ActionKey), []byte(msg.Path()))
	return res, nil
}
