package smallettest

import "github.com/iov-one/smallet"

// Tx represents a single message that is to be processed.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg smallet.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ smallet.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (smallet.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg is a routable message with no domain meaning. Use it to test routing
// and decorators.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ smallet.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}
