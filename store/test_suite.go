package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/smallettest/assert"
)

// TestSuite runs the same checks against any CacheableKVStore
// implementation. Only the constructor is customized, so that the in memory
// btree and the iavl adapter are held to the same contract.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function that releases
// all its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that cache wraps are isolated until written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k2, v2, true)

	// discarded changes never reach the parent
	k3, v3 := []byte("Bayern"), []byte("Munich")
	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(k3, v3))
	assert.Nil(t, discarded.Delete(k))
	discarded.Discard()
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k3, nil, false)

	written := base.CacheWrap()
	assert.Nil(t, written.Delete(k))
	assert.Nil(t, written.Write())
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	parent, cleanup := s.makeBase()
	defer cleanup()

	assert.Nil(t, parent.Set(ks[1], vs[1]))
	assert.Nil(t, parent.Set(ks[2], vs[2]))

	child := parent.CacheWrap()
	assert.Nil(t, child.Set(ks[1], vs[0]))
	assert.Nil(t, child.Set(ks[3], vs[3]))
	assert.Nil(t, child.Delete(ks[2]))

	s.AssertGetHas(t, parent, ks[1], vs[1], true)
	s.AssertGetHas(t, parent, ks[2], vs[2], true)
	s.AssertGetHas(t, parent, ks[3], nil, false)
	s.AssertGetHas(t, child, ks[1], vs[0], true)
	s.AssertGetHas(t, child, ks[2], nil, false)
	s.AssertGetHas(t, child, ks[3], vs[3], true)

	assert.Nil(t, child.Write())
	s.AssertGetHas(t, parent, ks[1], vs[0], true)
	s.AssertGetHas(t, parent, ks[2], nil, false)
	s.AssertGetHas(t, parent, ks[3], vs[3], true)
}

// IteratorMerge checks that iterating over a cache wrap combines the parent
// content with the changes of the child, in both directions.
func (s *TestSuite) IteratorMerge(t *testing.T) {
	const size = 30

	parentSet := randModels(size, 8, 20)
	childSet := randModels(size, 8, 20)
	// Overwrite one parent value and delete another one in the child.
	overwritten := Model{Key: parentSet[3].Key, Value: []byte("new value")}
	deleted := parentSet[7]

	var want []Model
	for i, m := range parentSet {
		switch i {
		case 3:
			want = append(want, overwritten)
		case 7:
		default:
			want = append(want, m)
		}
	}
	want = sortModels(append(want, childSet...))

	base, cleanup := s.makeBase()
	defer cleanup()
	for _, m := range parentSet {
		assert.Nil(t, base.Set(m.Key, m.Value))
	}
	child := base.CacheWrap()
	for _, m := range childSet {
		assert.Nil(t, child.Set(m.Key, m.Value))
	}
	assert.Nil(t, child.Set(overwritten.Key, overwritten.Value))
	assert.Nil(t, child.Delete(deleted.Key))

	queries := []rangeQuery{
		{nil, nil, false, want},
		{want[10].Key, nil, false, want[10:]},
		{nil, want[20].Key, false, want[:20]},
		{want[5].Key, want[25].Key, false, want[5:25]},
		{nil, nil, true, reverse(want)},
		{want[12].Key, nil, true, reverse(want[12:])},
		{want[4].Key, want[9].Key, true, reverse(want[4:9])},
	}
	for _, q := range queries {
		q.verify(t, child)
	}
}

// AssertGetHas checks both Get and Has results for given key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// rangeQuery checks the results of iteration
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (q rangeQuery) verify(t testing.TB, kv ReadOnlyKVStore) {
	t.Helper()

	var (
		iter Iterator
		err  error
	)
	if q.reverse {
		iter, err = kv.ReverseIterator(q.start, q.end)
	} else {
		iter, err = kv.Iterator(q.start, q.end)
	}
	assert.Nil(t, err)
	defer iter.Release()

	for i, m := range q.expected {
		key, value, err := iter.Next()
		assert.Nil(t, err)
		if !bytes.Equal(m.Key, key) {
			t.Fatalf("want key %X at %d, got %X", m.Key, i, key)
		}
		assert.Equal(t, m.Value, value)
	}
	if _, _, err := iter.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want ErrIteratorDone, got %+v", err)
	}
}

//nolint
func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}

// randKeys returns a slice of count keys, all of a given size
func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(size)
	}
	return res
}

// randModels produces a random set of models
func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := 0; i < count; i++ {
		models[i].Key = randBytes(keySize)
		models[i].Value = randBytes(valueSize)
	}
	return models
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}
