package store

import "github.com/iov-one/smallet"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = smallet.ReadOnlyKVStore
	SetDeleter       = smallet.SetDeleter
	KVStore          = smallet.KVStore
	Batch            = smallet.Batch
	Iterator         = smallet.Iterator
	CacheableKVStore = smallet.CacheableKVStore
	KVCacheWrap      = smallet.KVCacheWrap
	CommitKVStore    = smallet.CommitKVStore
	CommitID         = smallet.CommitID
	Model            = smallet.Model
)

// Pair constructs a model from a key-value pair
var Pair = smallet.Pair
