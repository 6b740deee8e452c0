package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/five82/ntdash/internal/objstore"
)

var ErrNotFound = errors.New("archive entry not found")

const keyPrefix = "history:"

// Archive persists subscription caches between runs.
type Archive struct {
	db    *badger.DB
	codec *Codec
}

// Open opens (or creates) the archive under dir. level selects the zstd
// speed, see NewCodec.
func Open(dir string, level int) (*Archive, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir))
	opts.Logger = nil
	opts = opts.WithValueLogFileSize(16 << 20)
	return open(opts, level)
}

// OpenInMemory returns an archive that is discarded on Close.
func OpenInMemory(level int) (*Archive, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, level)
}

func open(opts badger.Options, level int) (*Archive, error) {
	codec, err := NewCodec(level)
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(opts)
	if err != nil {
		codec.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db, codec: codec}, nil
}

func (a *Archive) Close() error {
	err := a.db.Close()
	a.codec.Close()
	return err
}

// Key names the entry for one subscription of one client.
func Key(client, pattern string) string {
	return keyPrefix + client + ":" + pattern
}

// Save stores the wire form of store under key, replacing any previous entry.
func (a *Archive) Save(ctx context.Context, key string, store *objstore.ObjectStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	payload := a.codec.Encode(data)
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
}

// Load returns the store saved under key, or ErrNotFound.
func (a *Archive) Load(ctx context.Context, key string) (*objstore.ObjectStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	data, err := a.codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	out := objstore.New(0)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return out, nil
}

// Delete removes key. Missing keys are not an error.
func (a *Archive) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Keys lists stored keys starting with prefix, in order. An empty prefix
// lists every history entry.
func (a *Archive) Keys(ctx context.Context, prefix string) ([]string, error) {
	if prefix == "" || !strings.HasPrefix(prefix, keyPrefix) {
		prefix = keyPrefix + prefix
	}
	var keys []string
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
