package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iov-one/smallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialDoesNotInterleave(t *testing.T) {
	h := &overlapHandler{}
	stack := ChainDecorators(NewSerial()).WithHandler(h)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := stack.Deliver(context.Background(), nil, nil)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := stack.Check(context.Background(), nil, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(0), atomic.LoadInt32(&h.overlaps))
	require.Equal(t, int32(40), atomic.LoadInt32(&h.calls))
}

// overlapHandler counts calls that run while another call is in progress.
type overlapHandler struct {
	running  int32
	overlaps int32
	calls    int32
}

func (h *overlapHandler) enter() {
	atomic.AddInt32(&h.calls, 1)
	if atomic.AddInt32(&h.running, 1) > 1 {
		atomic.AddInt32(&h.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&h.running, -1)
}

func (h *overlapHandler) Check(smallet.Context, smallet.KVStore, smallet.Tx) (*smallet.CheckResult, error) {
	h.enter()
	return &smallet.CheckResult{}, nil
}

func (h *overlapHandler) Deliver(smallet.Context, smallet.KVStore, smallet.Tx) (*smallet.DeliverResult, error) {
	h.enter()
	return &smallet.DeliverResult{}, nil
}
