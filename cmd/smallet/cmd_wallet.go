package main

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"strings"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x/multisig"
)

func cmdInit(output, logs io.Writer, args []string) error {
	var g globalOptions
	var opts struct {
		ChainID string `long:"chain-id" description:"Chain ID. Defaults to the chain_id of the configuration file."`
		Genesis string `long:"genesis" description:"Path to a JSON file with the initial application state."`
	}
	if err := parseArgs("init", args, &opts, &g); err != nil {
		return err
	}

	var appState []byte
	if opts.Genesis != "" {
		raw, err := ioutil.ReadFile(opts.Genesis)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "read genesis: %s", err)
		}
		appState = raw
	}

	a, err := openApp(g, logs)
	if err != nil {
		return err
	}
	defer a.Close()

	chainID := opts.ChainID
	if chainID == "" {
		chainID = a.cfg.ChainID
	}
	if chainID == "" {
		return errors.Wrap(errors.ErrEmpty, "chain id")
	}
	initializers := smallet.ChainInitializers{&multisig.Initializer{}}
	if err := a.engine.InitChain(chainID, appState, initializers); err != nil {
		return err
	}
	return writeJSON(output, map[string]string{"chain_id": chainID})
}

func cmdCreateWallet(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		t    txOptions
		opts struct {
			Owners       []string `long:"owner" required:"true" description:"Owner name or address. Repeat or separate with commas."`
			Threshold    uint32   `long:"threshold" required:"true" description:"Number of approvals required to execute a transaction."`
			MinimumDelay int64    `long:"minimum-delay" description:"Minimum timelock of every transaction, in seconds."`
		}
	)
	if err := parseArgs("create-wallet", args, &opts, &t, &g); err != nil {
		return err
	}
	owners, err := parseIdentities(opts.Owners)
	if err != nil {
		return err
	}
	return submitMsg(output, logs, g, t, &multisig.CreateWalletMsg{
		Owners:       owners,
		Threshold:    opts.Threshold,
		MinimumDelay: opts.MinimumDelay,
	})
}

type walletView struct {
	ID      uint64           `json:"id"`
	Address smallet.Address  `json:"address"`
	Wallet  *multisig.Wallet `json:"wallet"`
}

func cmdShowWallet(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		opts struct {
			Wallet uint64 `long:"wallet" required:"true" description:"Wallet ID."`
		}
	)
	if err := parseArgs("show-wallet", args, &opts, &g); err != nil {
		return err
	}
	a, err := openApp(g, logs)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.wallet(opts.Wallet)
	if err != nil {
		return err
	}
	id := walletID(opts.Wallet)
	return writeJSON(output, walletView{
		ID:      opts.Wallet,
		Address: multisig.WalletAddress(id),
		Wallet:  w,
	})
}

func (a *application) wallet(n uint64) (*multisig.Wallet, error) {
	res, err := a.engine.Query("/wallets", walletID(n))
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "wallet %d", n)
	}
	var w multisig.Wallet
	if err := w.Unmarshal(res[0].Value); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return &w, nil
}

type transactionView struct {
	Index       uint64                `json:"index"`
	State       string                `json:"state"`
	Transaction *multisig.Transaction `json:"transaction"`
}

func cmdShowTransaction(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		opts struct {
			Wallet uint64 `long:"wallet" required:"true" description:"Wallet ID."`
			Index  uint64 `long:"index" description:"Transaction index."`
			All    bool   `long:"all" description:"List all transactions of the wallet."`
			Time   string `long:"time" description:"Time used to compute the state, RFC3339 or unix seconds. Defaults to now."`
		}
	)
	if err := parseArgs("show-tx", args, &opts, &g); err != nil {
		return err
	}
	now, err := txOptions{Time: opts.Time}.now()
	if err != nil {
		return err
	}
	a, err := openApp(g, logs)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.wallet(opts.Wallet)
	if err != nil {
		return err
	}
	id := walletID(opts.Wallet)

	var res []smallet.Model
	if opts.All {
		res, err = a.engine.Query("/transactions?prefix", id)
	} else {
		res, err = a.engine.Query("/transactions", multisig.TransactionKey(id, opts.Index))
	}
	if err != nil {
		return err
	}
	if len(res) == 0 && !opts.All {
		return errors.Wrapf(errors.ErrNotFound, "transaction %d/%d", opts.Wallet, opts.Index)
	}

	views := make([]transactionView, 0, len(res))
	for _, m := range res {
		var t multisig.Transaction
		if err := t.Unmarshal(m.Value); err != nil {
			return errors.Wrap(errors.ErrModel, err.Error())
		}
		views = append(views, transactionView{
			Index:       binary.BigEndian.Uint64(m.Key[len(m.Key)-8:]),
			State:       t.State(w, smallet.AsUnixTime(now)).String(),
			Transaction: &t,
		})
	}
	if opts.All {
		return writeJSON(output, views)
	}
	return writeJSON(output, views[0])
}

type derivedView struct {
	Wallet  uint64          `json:"wallet"`
	Kind    string          `json:"kind"`
	Index   uint64          `json:"index"`
	Address smallet.Address `json:"address"`
	Bech32  string          `json:"bech32"`
}

// bech32Prefix is the human readable part of bech32 addresses.
const bech32Prefix = "smallet"

func cmdDerive(output, logs io.Writer, args []string) error {
	var opts struct {
		Wallet uint64 `long:"wallet" required:"true" description:"Wallet ID."`
		Kind   string `long:"kind" default:"derived" description:"Sub-account kind, derived or owner_invoker."`
		Index  uint64 `long:"index" description:"Sub-account index."`
	}
	if err := parseArgs("derive", args, &opts); err != nil {
		return err
	}
	kind, err := multisig.ParseSubaccountKind(strings.TrimSpace(opts.Kind))
	if err != nil {
		return err
	}
	addr, err := multisig.DeriveAddress(multisig.WalletAddress(walletID(opts.Wallet)), kind, opts.Index)
	if err != nil {
		return err
	}
	b32, err := addr.Bech32(bech32Prefix)
	if err != nil {
		return err
	}
	return writeJSON(output, derivedView{
		Wallet:  opts.Wallet,
		Kind:    kind.String(),
		Index:   opts.Index,
		Address: addr,
		Bech32:  b32,
	})
}

func cmdSubaccount(output, logs io.Writer, args []string) error {
	var (
		g    globalOptions
		t    txOptions
		opts struct {
			Wallet  uint64 `long:"wallet" required:"true" description:"Wallet ID."`
			Kind    string `long:"kind" default:"derived" description:"Sub-account kind, derived or owner_invoker."`
			Index   uint64 `long:"index" description:"Sub-account index."`
			Address string `long:"address" description:"Sub-account address to register. Defaults to the derived one."`
		}
	)
	if err := parseArgs("subaccount", args, &opts, &t, &g); err != nil {
		return err
	}
	kind, err := multisig.ParseSubaccountKind(strings.TrimSpace(opts.Kind))
	if err != nil {
		return err
	}
	id := walletID(opts.Wallet)
	var addr smallet.Address
	if opts.Address != "" {
		addr, err = smallet.ParseAddress(opts.Address)
	} else {
		addr, err = multisig.DeriveAddress(multisig.WalletAddress(id), kind, opts.Index)
	}
	if err != nil {
		return err
	}
	return submitMsg(output, logs, g, t, &multisig.CreateSubaccountInfoMsg{
		Subaccount: addr,
		WalletID:   id,
		Index:      opts.Index,
		Kind:       kind,
	})
}
