package secretstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
	"go.etcd.io/bbolt"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// DefaultStoreFile is the Tier B database file name under the home directory.
const DefaultStoreFile = "store.db"

//nolint:gochecknoglobals // bbolt bucket names are byte slices
var secretsBucket = []byte("secrets")

// BoltBackend stores Tier B values in a single bbolt file. Each value is
// age-encrypted to the backend's X25519 identity before it is written, and
// every write runs in its own bbolt transaction.
type BoltBackend struct {
	db       *bbolt.DB
	identity *age.X25519Identity
}

// OpenBoltBackend opens (or creates) the database at path.
func OpenBoltBackend(path string, identity *age.X25519Identity) (*BoltBackend, error) {
	if identity == nil {
		return nil, errors.New("bolt backend requires an encryption identity")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(secretsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return &BoltBackend{db: db, identity: identity}, nil
}

// Put implements Backend.
func (b *BoltBackend) Put(_ context.Context, name string, value []byte) error {
	sealed, err := drmcrypto.EncryptTo(value, b.identity)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(secretsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(name), sealed)
	})
}

// Get implements Backend.
func (b *BoltBackend) Get(_ context.Context, name string) ([]byte, bool, error) {
	var sealed []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(secretsBucket)
		if bucket == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		if v := bucket.Get([]byte(name)); v != nil {
			sealed = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if sealed == nil {
		return nil, false, nil
	}
	// A value sealed to another identity is unreadable data rather than a
	// backend fault, so callers can still delete or replace it.
	value, err := drmcrypto.DecryptWith(sealed, b.identity)
	if err != nil {
		return nil, false, drmerr.WithSuggestion(
			drmerr.Wrap(drmerr.WithCause(drmerr.ErrMalformedInput, err), "decrypting %s", name),
			"the store key no longer opens this entry; delete the wallet and restore it from the mnemonic or a backup",
		)
	}
	return value, true, nil
}

// Delete implements Backend.
func (b *BoltBackend) Delete(_ context.Context, name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(secretsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(name))
	})
}

// Clear implements Backend.
func (b *BoltBackend) Clear(_ context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(secretsBucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(secretsBucket)
		return err
	})
}

// Close implements Backend.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
