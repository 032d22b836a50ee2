/*
Package orm provides a thin layer for storing models in a KVStore.

Each ModelBucket owns a key prefix. Keys given to the bucket are relative to
that prefix, so two buckets never collide as long as their names differ.
*/
package orm

import (
	"reflect"
	"regexp"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	smallet.Persistent
	Validate() error
}

// ModelBucket stores models of a single type under a common key prefix.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db smallet.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists and
	// ErrNotFound otherwise.
	Has(db smallet.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. If key is nil, the next value
	// of the bucket sequence is used. The key that was used is returned.
	Put(db smallet.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db smallet.KVStore, key []byte) error

	// PrefixScan returns an iterator over all entities which keys start
	// with given prefix. Use nil prefix to iterate over the whole bucket.
	PrefixScan(db smallet.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error)

	// Register adds a query handler for this bucket under /<name>.
	Register(name string, r smallet.QueryRouter)
}

// ModelIterator returns models in the order of their keys.
type ModelIterator interface {
	// Next loads the next model into dest and returns its key. Once all
	// entities were consumed ErrIteratorDone is returned.
	Next(dest Model) ([]byte, error)
	Release()
}

var isBucketName = regexp.MustCompile(`^[a-z_]{2,20}$`).MatchString

// NewModelBucket returns a ModelBucket that stores instances of the same
// type as given model.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	b := &modelBucket{
		prefix:    []byte(name + ":"),
		modelType: reflect.TypeOf(m),
		seq:       NewSequence(name, "id"),
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(*modelBucket)

// WithIDSequence configures the bucket to use given sequence for generating
// keys when saving models with a nil key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(b *modelBucket) {
		b.seq = s
	}
}

type modelBucket struct {
	prefix    []byte
	modelType reflect.Type
	seq       Sequence
}

var _ ModelBucket = (*modelBucket)(nil)

func (b *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte{}, b.prefix...), key...)
}

func (b *modelBucket) One(db smallet.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != b.modelType {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", b.modelType, dest)
	}
	raw, err := db.Get(b.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", b.modelType)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", b.modelType, err)
	}
	return nil
}

func (b *modelBucket) Has(db smallet.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(b.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", b.modelType)
	}
	return nil
}

func (b *modelBucket) Put(db smallet.KVStore, key []byte, m Model) ([]byte, error) {
	if reflect.TypeOf(m) != b.modelType {
		return nil, errors.Wrapf(errors.ErrType, "cannot store %T in %s bucket", m, b.modelType)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	if key == nil {
		var err error
		if key, err = b.seq.NextVal(db); err != nil {
			return nil, errors.Wrap(err, "next key")
		}
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot marshal %T: %s", m, err)
	}
	if err := db.Set(b.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (b *modelBucket) Delete(db smallet.KVStore, key []byte) error {
	if err := b.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(b.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (b *modelBucket) PrefixScan(db smallet.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error) {
	start, end := prefixRange(b.dbKey(prefix))

	var (
		it  smallet.Iterator
		err error
	)
	if reverse {
		it, err = db.ReverseIterator(start, end)
	} else {
		it, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot create iterator")
	}
	return &modelIterator{it: it, prefix: b.prefix, modelType: b.modelType}, nil
}

type modelIterator struct {
	it        smallet.Iterator
	prefix    []byte
	modelType reflect.Type
}

func (i *modelIterator) Next(dest Model) ([]byte, error) {
	if reflect.TypeOf(dest) != i.modelType {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", i.modelType, dest)
	}
	key, raw, err := i.it.Next()
	if err != nil {
		return nil, err
	}
	if err := dest.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", i.modelType, err)
	}
	return key[len(i.prefix):], nil
}

func (i *modelIterator) Release() {
	i.it.Release()
}

// Register adds the bucket content to the query router. Key queries return a
// single entity and prefix queries return all entities with a key starting
// with given data.
func (b *modelBucket) Register(name string, r smallet.QueryRouter) {
	r.Register("/"+name, b)
}

// Query implements smallet.QueryHandler. Returned keys are relative to the
// bucket.
func (b *modelBucket) Query(db smallet.ReadOnlyKVStore, mod string, data []byte) ([]smallet.Model, error) {
	switch mod {
	case smallet.KeyQueryMod:
		raw, err := db.Get(b.dbKey(data))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		return []smallet.Model{smallet.Pair(data, raw)}, nil
	case smallet.PrefixQueryMod:
		start, end := prefixRange(b.dbKey(data))
		it, err := db.Iterator(start, end)
		if err != nil {
			return nil, err
		}
		defer it.Release()

		var res []smallet.Model
		for {
			key, value, err := it.Next()
			if errors.ErrIteratorDone.Is(err) {
				return res, nil
			}
			if err != nil {
				return nil, err
			}
			res = append(res, smallet.Pair(key[len(b.prefix):], value))
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
}

// prefixRange turns a prefix into (start, end) to create an iterator.
func prefixRange(prefix []byte) ([]byte, []byte) {
	start := prefix
	end := make([]byte, len(prefix))
	copy(end, prefix)
	// Increment the last byte that is not 0xFF. All bytes after it are
	// dropped.
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	// Prefix made of 0xFF bytes only. Iterate until the end of the store.
	return start, nil
}
