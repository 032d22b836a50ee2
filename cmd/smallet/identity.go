package main

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/orm"
)

// operatorCondition returns the condition representing a named operator.
// The name is trusted: this tool acts on behalf of whoever runs it.
func operatorCondition(name string) (smallet.Condition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "identity name")
	}
	return smallet.NewCondition("cli", "operator", []byte(name)), nil
}

// parseIdentity accepts either an address in any of its textual forms or an
// operator name.
func parseIdentity(s string) (smallet.Address, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") || isHexAddress(s) {
		return smallet.ParseAddress(s)
	}
	c, err := operatorCondition(s)
	if err != nil {
		return nil, err
	}
	return c.Address(), nil
}

func parseIdentities(raw []string) ([]smallet.Address, error) {
	res := make([]smallet.Address, 0, len(raw))
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			a, err := parseIdentity(part)
			if err != nil {
				return nil, errors.Wrapf(err, "identity %q", part)
			}
			res = append(res, a)
		}
	}
	return res, nil
}

func isHexAddress(s string) bool {
	if len(s) != 2*smallet.AddressLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// walletID returns the key of the wallet with given sequence number.
func walletID(n uint64) []byte {
	return orm.EncodeSequence(n)
}

// parseRawInstruction parses "<program>:<hex data>". Program is an address
// in any of its textual forms.
func parseRawInstruction(s string) (smallet.Address, []byte, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return nil, nil, errors.Wrapf(errors.ErrInput, "raw instruction %q, want <program>:<hex data>", s)
	}
	program, err := smallet.ParseAddress(s[:i])
	if err != nil {
		return nil, nil, errors.Wrap(err, "program")
	}
	data, err := hex.DecodeString(s[i+1:])
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInput, "instruction data: %s", err)
	}
	return program, data, nil
}

// parseUnixTime accepts RFC3339 or unix seconds.
func parseUnixTime(s string) (smallet.UnixTime, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return smallet.UnixTime(n), nil
	}
	var t smallet.UnixTime
	if err := t.UnmarshalJSON([]byte(strconv.Quote(s))); err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "time %q: %s", s, err)
	}
	return t, nil
}
