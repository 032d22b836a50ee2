package orm

import (
	"encoding/binary"
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/smallettest/assert"
	"github.com/iov-one/smallet/store"
)

type counter struct {
	Count uint64
}

func (c *counter) Marshal() ([]byte, error) {
	return EncodeSequence(c.Count), nil
}

func (c *counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrap(errors.ErrInput, "counter must be 8 bytes")
	}
	c.Count = binary.BigEndian.Uint64(raw)
	return nil
}

func (c *counter) Validate() error {
	if c.Count == 0 {
		return errors.Wrap(errors.ErrEmpty, "count")
	}
	return nil
}

type other struct{ counter }

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	key, err := b.Put(db, []byte("c1"), &counter{Count: 1})
	assert.Nil(t, err)
	assert.Equal(t, []byte("c1"), key)

	var c1 counter
	assert.Nil(t, b.One(db, []byte("c1"), &c1))
	assert.Equal(t, uint64(1), c1.Count)
	assert.Nil(t, b.Has(db, []byte("c1")))

	// The raw key is prefixed with the bucket name.
	raw, err := db.Get([]byte("cnts:c1"))
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(1), raw)

	assert.Nil(t, b.Delete(db, []byte("c1")))
	assert.IsErr(t, errors.ErrNotFound, b.Delete(db, []byte("unknown")))
	assert.IsErr(t, errors.ErrNotFound, b.One(db, []byte("c1"), &c1))
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, []byte("c1")))
}

func TestModelBucketRejectsInvalid(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	_, err := b.Put(db, []byte("c"), &counter{})
	assert.IsErr(t, errors.ErrEmpty, err)

	_, err = b.Put(db, []byte("c"), &other{counter{Count: 2}})
	assert.IsErr(t, errors.ErrType, err)

	_, err = b.Put(db, []byte("c"), &counter{Count: 2})
	assert.Nil(t, err)
	assert.IsErr(t, errors.ErrType, b.One(db, []byte("c"), &other{}))

	assert.Panics(t, func() { NewModelBucket("Invalid Name", &counter{}) })
}

func TestModelBucketSequenceKeys(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	k1, err := b.Put(db, nil, &counter{Count: 10})
	assert.Nil(t, err)
	k2, err := b.Put(db, nil, &counter{Count: 20})
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(1), k1)
	assert.Equal(t, EncodeSequence(2), k2)

	seq := NewSequence("cnts", "id")
	latest, err := seq.Latest(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), latest)
}

func TestModelBucketPrefixScan(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})
	another := NewModelBucket("cntz", &counter{})

	for i, k := range []string{"a/1", "a/2", "b/1", "a/3"} {
		_, err := b.Put(db, []byte(k), &counter{Count: uint64(i + 1)})
		assert.Nil(t, err)
	}
	_, err := another.Put(db, []byte("a/9"), &counter{Count: 99})
	assert.Nil(t, err)

	cases := map[string]struct {
		prefix   []byte
		reverse  bool
		wantKeys []string
	}{
		"whole bucket": {
			prefix:   nil,
			wantKeys: []string{"a/1", "a/2", "a/3", "b/1"},
		},
		"prefix": {
			prefix:   []byte("a/"),
			wantKeys: []string{"a/1", "a/2", "a/3"},
		},
		"prefix reversed": {
			prefix:   []byte("a/"),
			reverse:  true,
			wantKeys: []string{"a/3", "a/2", "a/1"},
		},
		"nothing found": {
			prefix:   []byte("c/"),
			wantKeys: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			it, err := b.PrefixScan(db, tc.prefix, tc.reverse)
			assert.Nil(t, err)
			defer it.Release()

			var keys []string
			for {
				var c counter
				key, err := it.Next(&c)
				if errors.ErrIteratorDone.Is(err) {
					break
				}
				assert.Nil(t, err)
				keys = append(keys, string(key))
			}
			assert.Equal(t, tc.wantKeys, keys)
		})
	}
}

func TestModelBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})
	_, err := b.Put(db, []byte("a/1"), &counter{Count: 1})
	assert.Nil(t, err)
	_, err = b.Put(db, []byte("a/2"), &counter{Count: 2})
	assert.Nil(t, err)

	qr := smallet.NewQueryRouter()
	b.Register("counters", qr)

	res, err := qr.Query(db, "/counters", smallet.KeyQueryMod, []byte("a/1"))
	assert.Nil(t, err)
	assert.Equal(t, []smallet.Model{smallet.Pair([]byte("a/1"), EncodeSequence(1))}, res)

	res, err = qr.Query(db, "/counters", smallet.KeyQueryMod, []byte("missing"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res))

	res, err = qr.Query(db, "/counters", smallet.PrefixQueryMod, []byte("a/"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	_, err = qr.Query(db, "/counters", "range", nil)
	assert.IsErr(t, errors.ErrInput, err)

	_, err = qr.Query(db, "/unknown", smallet.KeyQueryMod, nil)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestPrefixRange(t *testing.T) {
	start, end := prefixRange([]byte{1, 0xFF})
	assert.Equal(t, []byte{1, 0xFF}, start)
	assert.Equal(t, []byte{2}, end)

	_, end = prefixRange([]byte{0xFF, 0xFF})
	assert.Equal(t, []byte(nil), end)
}
