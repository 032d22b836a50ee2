package smallettest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/store/iavl"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data.
// This implementation should be used instead of MemStore when you want the
// exact same storage implementation as the command line tool is using.
func CommitKVStore(t testing.TB) (db smallet.CommitKVStore, cleanup func()) {
	t.Helper()

	dbpath, err := ioutil.TempDir("", "smallet-")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	commit, err := iavl.NewCommitStore(dbpath, "db")
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open the store: %s", err)
	}
	return commit, func() {
		commit.Close()
		os.RemoveAll(dbpath)
	}
}
