package smallettest

import "github.com/iov-one/smallet"

// Handler is a smallet.Handler that counts its calls and returns the
// configured results.
type Handler struct {
	checkCall   int
	CheckResult smallet.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult smallet.DeliverResult
	DeliverErr    error

	// Write if set is stored in the database on every successful call.
	Write *smallet.Model
}

var _ smallet.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx smallet.Context, db smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	h.deliverCall++
	if h.Write != nil {
		if err := db.Set(h.Write.Key, h.Write.Value); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
