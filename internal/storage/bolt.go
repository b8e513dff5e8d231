package storage

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var settingsBucket = []byte("settings")

// BoltKV implements KV on a bbolt database with a single bucket. Every Put runs in its
// own read-write transaction, so a value is either fully written or not at all.
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens (or creates with 0600 permissions) the database at path and makes sure
// the settings bucket exists.
func OpenBolt(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt db %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create settings bucket")
	}

	return &BoltKV{db: db}, nil
}

// Get implements KV
func (b *BoltKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(settingsBucket)
		if bucket == nil {
			return nil
		}
		// bbolt values are only valid for the life of the transaction
		if v := bucket.Get([]byte(key)); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s", key)
	}
	return value, value != nil, nil
}

// Put implements KV
func (b *BoltKV) Put(key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(settingsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
	return errors.Wrapf(err, "failed to write %s", key)
}

// Close implements KV
func (b *BoltKV) Close() error {
	return errors.Wrap(b.db.Close(), "failed to close bolt db")
}
