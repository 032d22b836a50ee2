package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/app"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/metrics"
	"github.com/iov-one/smallet/store/iavl"
	"github.com/iov-one/smallet/x"
	"github.com/iov-one/smallet/x/multisig"
	"github.com/iov-one/smallet/x/sigs"
	"github.com/iov-one/smallet/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
)

const appName = "smallet"

// application is the wallet engine opened over the state stored in the home
// directory.
type application struct {
	cfg     config
	logger  log.Logger
	commit  *iavl.CommitStore
	engine  *app.Engine
	metrics *prometheus.Registry
	server  *http.Server
}

// openApp opens the store and wires all extensions. Close must be called to
// release the store.
func openApp(g globalOptions, logOutput io.Writer) (*application, error) {
	cfg, err := resolveConfig(g)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(logOutput, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "create home directory: %s", err)
	}
	commit, err := iavl.NewCommitStore(cfg.Home, "state")
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		commit.Close()
		return nil, errors.Wrapf(errors.ErrHuman, "register metrics: %s", err)
	}

	handler, queries := appStack(collector)
	engine, err := app.NewEngine(appName, commit, handler, queries)
	if err != nil {
		commit.Close()
		return nil, err
	}
	a := &application{
		cfg:     cfg,
		logger:  logger,
		commit:  commit,
		engine:  engine.WithLogger(logger),
		metrics: registry,
	}
	if cfg.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.MetricsAddr); err != nil {
			commit.Close()
			return nil, err
		}
	}
	return a, nil
}

// appStack returns the transaction handler and the query router of the
// application.
func appStack(collector *metrics.Collector) (smallet.Handler, smallet.QueryRouter) {
	auth := x.ChainAuth(sigs.Authenticate{}, multisig.Authenticate{})
	router := app.NewRouter()
	executor := multisig.NewProgramExecutor(auth)
	sink := multisig.MultiSink{multisig.LogSink{}, collector.Sink()}
	multisig.RegisterRoutes(router, auth, executor, sink)
	multisig.RegisterWalletProgram(executor, router)

	queries := smallet.NewQueryRouter()
	queries.RegisterAll(multisig.RegisterQuery)

	handler := app.ChainDecorators(
		utils.NewRecovery(),
		utils.NewLogging(),
		collector.Instrument(),
		utils.NewActionTagger(),
		sigs.NewDecorator(),
		app.NewSerial(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(router)
	return handler, queries
}

func newLogger(w io.Writer, level string) (log.Logger, error) {
	if level == "none" {
		return log.NewNopLogger(), nil
	}
	allowed, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(log.NewTMLogger(log.NewSyncWriter(w)), allowed), nil
}

// serveMetrics starts an HTTP server exposing the application metrics
// under /metrics.
func (a *application) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "metrics listener: %s", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux}
	go func() {
		if err := a.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server", "err", err)
		}
	}()
	a.logger.Info("Serving metrics", "addr", ln.Addr().String())
	return nil
}

// Close stops the metrics server and releases the store.
func (a *application) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	a.commit.Close()
}

// submit runs the message as signed by given identity. The transaction is
// checked first and delivered only if the check passes.
func (a *application) submit(now time.Time, signer smallet.Condition, msg smallet.Msg) (*smallet.DeliverResult, error) {
	tx := &sigs.StdTx{Msg: msg, Signers: []smallet.Condition{signer}}
	if _, err := a.engine.Check(now, tx); err != nil {
		return nil, errors.Wrap(err, "check")
	}
	return a.engine.Deliver(now, tx)
}
