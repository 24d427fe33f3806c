package storage

// PrefixDB namespaces a slice of a shared database. The ledger's coin
// records and any sibling component (keystore metadata, tree caches) can
// live in one Badger instance without key collisions: each gets a
// PrefixDB over its own namespace.
type PrefixDB struct {
	inner     DB
	namespace []byte
}

// NewPrefixDB scopes inner to the given namespace. Keys passed in and out
// of the returned DB never include the namespace bytes.
func NewPrefixDB(inner DB, namespace []byte) *PrefixDB {
	return &PrefixDB{inner: inner, namespace: append([]byte(nil), namespace...)}
}

// join concatenates the namespace and a logical key.
func join(namespace, key []byte) []byte {
	out := make([]byte, 0, len(namespace)+len(key))
	out = append(out, namespace...)
	return append(out, key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(join(p.namespace, key))
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(join(p.namespace, key), value)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(join(p.namespace, key))
}

func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(join(p.namespace, key))
}

// ForEach iterates the namespace's keys under the given logical prefix.
// Callbacks see logical keys, with the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return p.inner.ForEach(join(p.namespace, prefix), func(key, value []byte) error {
		return fn(key[len(p.namespace):], value)
	})
}

// DeleteAll drops every key in the namespace. Other namespaces sharing
// the inner DB are untouched.
func (p *PrefixDB) DeleteAll() error {
	// Two passes: mutating the inner DB mid-iteration is undefined for
	// some backends.
	var keys [][]byte
	err := p.inner.ForEach(p.namespace, func(key, _ []byte) error {
		keys = append(keys, append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.inner.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the shared inner DB outlives its namespaces.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch returns a batch whose writes land inside the namespace. When
// the inner DB batches atomically the namespace batch does too; otherwise
// writes are buffered and replayed individually on Commit.
func (p *PrefixDB) NewBatch() Batch {
	if batcher, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: batcher.NewBatch(), namespace: p.namespace}
	}
	return &prefixReplayBatch{db: p}
}

type prefixBatch struct {
	inner     Batch
	namespace []byte
}

func (b *prefixBatch) Put(key, value []byte) error {
	return b.inner.Put(join(b.namespace, key), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.inner.Delete(join(b.namespace, key))
}

func (b *prefixBatch) Commit() error {
	return b.inner.Commit()
}

// prefixOp is one buffered write; a nil value marks a delete.
type prefixOp struct {
	key   []byte
	value []byte
}

// prefixReplayBatch is the non-atomic fallback for inner DBs without
// batch support.
type prefixReplayBatch struct {
	db  *PrefixDB
	ops []prefixOp
}

func (b *prefixReplayBatch) Put(key, value []byte) error {
	// make keeps empty values non-nil so they don't read as deletes.
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, prefixOp{key: append([]byte(nil), key...), value: v})
	return nil
}

func (b *prefixReplayBatch) Delete(key []byte) error {
	b.ops = append(b.ops, prefixOp{key: append([]byte(nil), key...)})
	return nil
}

func (b *prefixReplayBatch) Commit() error {
	for _, op := range b.ops {
		if op.value == nil {
			if err := b.db.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := b.db.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}
