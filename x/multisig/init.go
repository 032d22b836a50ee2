package multisig

import (
	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ smallet.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial wallet configurations from genesis and save
// them in the database. Wallets get sequential IDs in the order they are
// listed.
func (*Initializer) FromGenesis(opts smallet.Options, db smallet.KVStore) error {
	var conf struct {
		Wallets []struct {
			Owners       []smallet.Address `json:"owners"`
			Threshold    uint32            `json:"threshold"`
			MinimumDelay int64             `json:"minimum_delay"`
			GracePeriod  *int64            `json:"grace_period"`
		} `json:"wallets"`
	}
	if err := opts.ReadOptions("multisig", &conf); err != nil {
		return err
	}

	bucket := NewWalletBucket()
	for i, c := range conf.Wallets {
		w := NewWallet(c.Owners, c.Threshold, c.MinimumDelay)
		if c.GracePeriod != nil {
			w.GracePeriod = *c.GracePeriod
		}
		if err := w.Validate(); err != nil {
			return errors.Wrapf(err, "wallet #%d is invalid", i)
		}
		if _, err := bucket.Put(db, nil, w); err != nil {
			return errors.Wrapf(err, "cannot save wallet #%d", i)
		}
	}
	return nil
}
