package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/smallet/errors"
)

// cmdServeMetrics keeps the metrics endpoint running until the process is
// interrupted.
func cmdServeMetrics(output, logs io.Writer, args []string) error {
	var g globalOptions
	if err := parseArgs("serve-metrics", args, &g); err != nil {
		return err
	}
	a, err := openApp(g, logs)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.server == nil {
		return errors.Wrap(errors.ErrEmpty, "metrics address")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	<-sig
	return nil
}
