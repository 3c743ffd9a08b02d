package receipts

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	receiptBucket    = "receipts"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("receipt bucket missing")

// boltStore implements a Store backed by BoltDB. Each value is an 8 byte
// big-endian expiry followed by the JSON receipt.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create receipts directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(receiptBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Put stores or replaces a receipt keyed by its ID.
func (b *boltStore) Put(r Receipt) error {
	if b == nil || b.db == nil {
		return nil
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return fmt.Errorf("receipt id is required")
	}

	now := b.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
	}
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(now.Add(b.ttl).Unix()))
	buf = append(buf, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(r.ID), buf)
	})
}

// Get returns the live receipt with the given ID, dropping it if expired.
func (b *boltStore) Get(id string) (Receipt, error) {
	if b == nil || b.db == nil {
		return Receipt{}, ErrNotFound
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return Receipt{}, err
	}

	var (
		out   Receipt
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket == nil {
			return errBucketMissing
		}

		key := []byte(id)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}
		r, ok := decodeLive(value, now)
		if !ok {
			return bucket.Delete(key)
		}
		out, found = r, true
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	if !found {
		return Receipt{}, ErrNotFound
	}
	return out, nil
}

// Latest returns the most recently created live receipt of the given kind,
// skipping receipts that are already settled.
func (b *boltStore) Latest(kind string) (Receipt, error) {
	if b == nil || b.db == nil {
		return Receipt{}, ErrNotFound
	}

	now := b.now()
	var (
		out   Receipt
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.ForEach(func(_, v []byte) error {
			r, ok := decodeLive(v, now)
			if !ok || r.Kind != kind || r.Settled() {
				return nil
			}
			if !found || r.CreatedAt.After(out.CreatedAt) {
				out, found = r, true
			}
			return nil
		})
	})
	if err != nil {
		return Receipt{}, err
	}
	if !found {
		return Receipt{}, ErrNotFound
	}
	return out, nil
}

// Delete removes a receipt. Missing IDs are not an error.
func (b *boltStore) Delete(id string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Delete([]byte(id))
	})
}

// maybeCleanupExpired removes expired receipts on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket == nil {
			return errBucketMissing
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if _, ok := decodeLive(v, now); !ok {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeLive decodes a stored value, reporting false when it is malformed or expired.
func decodeLive(value []byte, now time.Time) (Receipt, bool) {
	expiry, ok := decodeExpiry(value)
	if !ok || !expiry.After(now) {
		return Receipt{}, false
	}
	var r Receipt
	if err := json.Unmarshal(value[expiryValueBytes:], &r); err != nil {
		return Receipt{}, false
	}
	return r, true
}

// decodeExpiry decodes the expiry time from the stored value prefix.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
