package keyvalue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; data is lost on Close.
	InMemory bool
}

// BadgerBucket is a BucketManager persisted in BadgerDB. Keys and values
// are stored JSON-encoded; TTLs use badger's native entry expiry.
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines.
type BadgerBucket struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a bucket.
func OpenBadger(opts BadgerOptions) (*BadgerBucket, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Use a quiet logger by default
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &BadgerBucket{db: db}, nil
}

// Close releases the database.
func (b *BadgerBucket) Close() error {
	return b.db.Close()
}

// Get implements BucketManager.
func (b *BadgerBucket) Get(ctx context.Context, key any) (Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, false, err
	}
	k, err := encodeKey(key)
	if err != nil {
		return Value{}, false, err
	}

	var value any
	found := false
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			value, decodeErr = decodeValue(val)
			found = decodeErr == nil
			return decodeErr
		})
	})
	if err != nil {
		return Value{}, false, fmt.Errorf("badger get: %w", err)
	}
	if !found {
		return Value{}, false, nil
	}
	return ValueOf(value), true, nil
}

// Put implements BucketManager.
func (b *BadgerBucket) Put(ctx context.Context, key, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := encodeKey(key)
	if err != nil {
		return err
	}
	v, err := encodeValue(value)
	if err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(k, v)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Delete implements BucketManager.
func (b *BadgerBucket) Delete(ctx context.Context, key any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := encodeKey(key)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}
