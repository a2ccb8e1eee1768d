package badger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// entity provides keyed JSON records with unique secondary indexes. All
// methods run inside a caller-supplied transaction so several entities can
// change atomically.
type entity[T any] struct {
	prefix  string
	indexes []index[T]
}

type index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// conflictError reports which unique index rejected a write.
type conflictError struct {
	index string
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("index %s conflict", e.index)
}

func (e *conflictError) Unwrap() error { return store.ErrAlreadyExists }

func newEntity[T any](prefix string) *entity[T] {
	return &entity[T]{prefix: prefix}
}

func (e *entity[T]) withIndex(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// create writes a new record. Returns store.ErrAlreadyExists when the ID is
// taken and a *conflictError when a unique index is.
func (e *entity[T]) create(txn *badger.Txn, id string, v *T) error {
	if _, err := txn.Get(e.key(id)); err == nil {
		return store.ErrAlreadyExists
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check existing key: %w", err)
	}

	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(v) {
			_, err := txn.Get(e.indexKey(idx.name, k))
			if err == nil {
				return &conflictError{index: idx.name}
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index key: %w", err)
			}
		}
	}

	if err := e.put(txn, id, v); err != nil {
		return err
	}

	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(v) {
			if err := txn.Set(e.indexKey(idx.name, k), []byte(id)); err != nil {
				return fmt.Errorf("set index key: %w", err)
			}
		}
	}
	return nil
}

// put overwrites the record without touching indexes.
func (e *entity[T]) put(txn *badger.Txn, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	return nil
}

// get returns store.ErrNotFound when the record does not exist.
func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal entity: %w", err)
	}
	return &v, nil
}

// lookup resolves an index value to a record ID.
func (e *entity[T]) lookup(txn *badger.Txn, name, value string) (string, error) {
	item, err := txn.Get(e.indexKey(name, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// delete removes the record and its index keys, returning the old value.
func (e *entity[T]) delete(txn *badger.Txn, id string) (*T, error) {
	old, err := e.get(txn, id)
	if err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(old) {
			if err := txn.Delete(e.indexKey(idx.name, k)); err != nil {
				return nil, fmt.Errorf("delete index key: %w", err)
			}
		}
	}
	if err := txn.Delete(e.key(id)); err != nil {
		return nil, fmt.Errorf("delete key: %w", err)
	}
	return old, nil
}

// scan calls fn for every record, skipping index keys.
func (e *entity[T]) scan(txn *badger.Txn, fn func(*T) error) error {
	prefix := []byte(e.prefix)
	idxPrefix := e.prefix + "idx:"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()), idxPrefix) {
			continue
		}

		var v T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return fmt.Errorf("unmarshal entity: %w", err)
		}
		if err := fn(&v); err != nil {
			return err
		}
	}
	return nil
}

// scanIndex returns the record IDs whose index value starts with valuePrefix.
func (e *entity[T]) scanIndex(txn *badger.Txn, name, valuePrefix string) ([]string, error) {
	prefix := e.indexKey(name, valuePrefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
