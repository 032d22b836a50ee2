package main

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	flags "github.com/jessevdk/go-flags"
)

// txOptions are accepted by all commands that submit a transaction.
type txOptions struct {
	As   string `long:"as" env:"SMALLET_AS" required:"true" description:"Name or address of the acting identity. It is trusted as given."`
	Time string `long:"time" description:"Block time used to process the transaction, RFC3339 or unix seconds. Defaults to now."`
}

func (o txOptions) signer() (smallet.Condition, error) {
	return operatorCondition(o.As)
}

func (o txOptions) now() (time.Time, error) {
	if o.Time == "" {
		return time.Now(), nil
	}
	t, err := parseUnixTime(o.Time)
	if err != nil {
		return time.Time{}, err
	}
	return t.Time(), nil
}

// parseArgs parses the command line into the given option groups. Only the
// first group may hold positional arguments.
func parseArgs(name string, args []string, groups ...interface{}) error {
	parser := flags.NewNamedParser(name, flags.HelpFlag|flags.PassDoubleDash)
	for _, g := range groups {
		if _, err := parser.AddGroup("Options", "", g); err != nil {
			return errors.Wrapf(errors.ErrHuman, "flags: %s", err)
		}
	}
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if len(rest) != 0 {
		return errors.Wrapf(errors.ErrInput, "unexpected arguments: %q", rest)
	}
	return nil
}

// submitMsg opens the application, submits the message and writes the
// delivery result.
func submitMsg(output, logs io.Writer, g globalOptions, t txOptions, msg smallet.Msg) error {
	signer, err := t.signer()
	if err != nil {
		return err
	}
	now, err := t.now()
	if err != nil {
		return err
	}
	a, err := openApp(g, logs)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.submit(now, signer, msg)
	if err != nil {
		return err
	}
	return writeResult(output, res)
}

type resultView struct {
	Data string            `json:"data,omitempty"`
	Log  string            `json:"log,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

func writeResult(output io.Writer, res *smallet.DeliverResult) error {
	view := resultView{
		Data: hex.EncodeToString(res.Data),
		Log:  res.Log,
		Tags: make(map[string]string, len(res.Tags)),
	}
	for _, t := range res.Tags {
		view.Tags[string(t.Key)] = printable(t.Value)
	}
	return writeJSON(output, view)
}

func writeJSON(output io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrapf(errors.ErrHuman, "cannot serialize: %s", err)
	}
	_, err = output.Write(append(raw, '\n'))
	return err
}

// printable returns the value as text if it is made of printable ASCII
// characters only and as hex otherwise.
func printable(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(b)
		}
	}
	return string(b)
}
