/*
Command smallet is a local operator tool for multi-owner wallets.

The state is kept in a persistent store under the home directory. Every
command that changes the state is processed as a single transaction and
committed only if it succeeds.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given the output writer, the writer for log
// messages and the command line arguments without the program and the
// command name.
var commands = map[string]func(output, logs io.Writer, args []string) error{
	"approve":       cmdApprove,
	"create-wallet": cmdCreateWallet,
	"derive":        cmdDerive,
	"execute":       cmdExecute,
	"init":          cmdInit,
	"owner-invoke":  cmdOwnerInvoke,
	"propose":       cmdPropose,
	"serve-metrics": cmdServeMetrics,
	"show-tx":       cmdShowTransaction,
	"show-wallet":   cmdShowWallet,
	"subaccount":    cmdSubaccount,
	"unapprove":     cmdUnapprove,
	"version":       cmdVersion,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s manages multi-owner wallets.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> --help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdout, os.Stderr, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(output, logs io.Writer, args []string) error {
	fmt.Fprintln(output, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
