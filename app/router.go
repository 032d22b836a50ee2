package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]smallet.Handler
}

var _ smallet.Registry = (*Router)(nil)
var _ smallet.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]smallet.Handler, 10),
	}
}

// Handle adds a new Handler for the path of given message.
// It panics if another Handler was already registered or the path is
// not valid.
func (r *Router) Handle(m smallet.Msg, h smallet.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is found,
// returns a notFound handler that always fails.
func (r *Router) handler(path string) smallet.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx) (*smallet.CheckResult, error) {
	if err := r.validate(tx); err != nil {
		return nil, err
	}
	return r.handler(smallet.GetPath(tx)).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx) (*smallet.DeliverResult, error) {
	if err := r.validate(tx); err != nil {
		return nil, err
	}
	return r.handler(smallet.GetPath(tx)).Deliver(ctx, store, tx)
}

func (r *Router) validate(tx smallet.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot load message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrEmpty, "no message")
	}
	return nil
}

// notFoundHandler always returns ErrNotFound
type notFoundHandler string

var _ smallet.Handler = notFoundHandler("")

func (path notFoundHandler) Check(smallet.Context, smallet.KVStore, smallet.Tx) (*smallet.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", string(path))
}

func (path notFoundHandler) Deliver(smallet.Context, smallet.KVStore, smallet.Tx) (*smallet.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", string(path))
}
