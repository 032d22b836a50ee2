package smallettest

import (
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/iov-one/smallet"
)

var condSeq uint64

// NewCondition returns a unique condition. Each call returns a different
// value, so it can be used to create a distinct owner identity.
func NewCondition() smallet.Condition {
	n := atomic.AddUint64(&condSeq, 1)
	return smallet.NewCondition("test", "sequence", SequenceID(n))
}

// SequenceID returns the binary representation of a sequence value, as
// used by the orm.Sequence.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// ParseAddress takes an address in a human readable format and returns its
// binary representation.
func ParseAddress(t testing.TB, encodedAddress string) smallet.Address {
	t.Helper()

	addr, err := smallet.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
