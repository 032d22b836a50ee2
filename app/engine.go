package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// chainIDKey is where the chain ID is stored once the genesis is loaded.
var chainIDKey = []byte("_sm:chain_id")

// Engine contains a data store and all info needed to process transactions
// and queries against it.
//
// Each delivered transaction is processed in its own cache wrap and, if
// successful, committed as a new version of the store. Failed transactions
// never leave a trace in the store.
//
// Engine is safe for concurrent use. Calls are processed one at a time,
// from opening the cache wrap until the commit.
type Engine struct {
	logger log.Logger

	// mu guards the store and the chain ID.
	mu sync.Mutex

	// name is used for logging only
	name string

	store   smallet.CommitKVStore
	handler smallet.Handler
	queries smallet.QueryRouter

	// chainID is loaded from db in initialization
	// saved once in InitChain
	chainID string
}

// NewEngine returns an engine that is processing transactions using given
// handler and answers queries using given router. The chain ID is loaded
// from the store if it was initialized before.
func NewEngine(name string, store smallet.CommitKVStore, h smallet.Handler, queries smallet.QueryRouter) (*Engine, error) {
	raw, err := store.Get(chainIDKey)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load chain id")
	}
	return &Engine{
		logger:  log.NewNopLogger(),
		name:    name,
		store:   store,
		handler: h,
		queries: queries,
		chainID: string(raw),
	}, nil
}

// WithLogger sets the logger on the Engine and returns it,
// to make it easy to chain in initialization
func (e *Engine) WithLogger(logger log.Logger) *Engine {
	e.logger = logger.With("module", e.name)
	return e
}

// ChainID returns the chain ID or an empty string if the genesis was not
// loaded yet.
func (e *Engine) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// InitChain stores the chain ID and initializes all extensions from the
// application state. It can be called only once for a given store.
func (e *Engine) InitChain(chainID string, appState []byte, init smallet.Initializer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID != "" {
		return errors.Wrapf(errors.ErrState, "app state previously loaded for chain %q", e.chainID)
	}
	if !smallet.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id %q", chainID)
	}
	var opts smallet.Options
	if len(appState) != 0 {
		if err := json.Unmarshal(appState, &opts); err != nil {
			return errors.Wrapf(errors.ErrInput, "cannot parse app state: %s", err)
		}
	}

	cache := e.store.CacheWrap()
	if err := cache.Set(chainIDKey, []byte(chainID)); err != nil {
		cache.Discard()
		return errors.Wrap(err, "cannot store chain id")
	}
	if init != nil {
		if err := init.FromGenesis(opts, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "genesis")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "cannot write genesis state")
	}
	id, err := e.store.Commit()
	if err != nil {
		return errors.Wrap(err, "cannot commit genesis state")
	}
	e.chainID = chainID
	e.logger.Info("Genesis loaded", "chain_id", chainID, "hash", fmt.Sprintf("%X", id.Hash))
	return nil
}

// context returns the context a transaction is processed with.
func (e *Engine) context(now time.Time, height int64) smallet.Context {
	ctx := smallet.WithHeight(context.Background(), height)
	ctx = smallet.WithBlockTime(ctx, now)
	ctx = smallet.WithChainID(ctx, e.chainID)
	return smallet.WithLogger(ctx, e.logger)
}

func (e *Engine) nextHeight() (int64, error) {
	if e.chainID == "" {
		return 0, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	id, err := e.store.LatestVersion()
	if err != nil {
		return 0, errors.Wrap(err, "cannot read latest version")
	}
	return id.Version + 1, nil
}

// Check runs the transaction against the current state without changing it.
func (e *Engine) Check(now time.Time, tx smallet.Tx) (*smallet.CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	height, err := e.nextHeight()
	if err != nil {
		return nil, err
	}
	cache := e.store.CacheWrap()
	defer cache.Discard()
	return e.handler.Check(e.context(now, height), cache, tx)
}

// Deliver processes the transaction with given time as the block time.
// State changes are committed only if processing succeeds.
func (e *Engine) Deliver(now time.Time, tx smallet.Tx) (*smallet.DeliverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	height, err := e.nextHeight()
	if err != nil {
		return nil, err
	}
	cache := e.store.CacheWrap()
	res, err := e.handler.Deliver(e.context(now, height), cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "cannot write state")
	}
	id, err := e.store.Commit()
	if err != nil {
		return nil, errors.Wrap(err, "cannot commit state")
	}
	e.logger.Debug("Commit synced",
		"height", id.Version,
		"hash", fmt.Sprintf("%X", id.Hash))
	return res, nil
}

// Query gets data from the committed state.
//
// Path is the type of query with an optional modifier, for example
// "/wallets" or "/transactions?prefix". Data is interpreted by the handler
// registered for the path.
func (e *Engine) Query(path string, data []byte) ([]smallet.Model, error) {
	path, mod := splitPath(path)

	e.mu.Lock()
	defer e.mu.Unlock()
	view := e.store.CacheWrap()
	defer view.Discard()
	return e.queries.Query(view, path, mod, data)
}

// splitPath splits out the real path along with the query
// modifier (everything after the ?)
func splitPath(path string) (string, string) {
	var mod string
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 2 {
		path = chunks[0]
		mod = chunks[1]
	}
	return path, mod
}
