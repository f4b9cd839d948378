// Package store persists non-volatile attribute values and the last
// published snapshot of every cluster in a bbolt database.
//
// Values are wrapped in a CBOR record carrying the write time, so the raw
// TLV produced by the clusters package stays opaque to the store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pion/logging"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/report"
)

var (
	bucketAttributes = []byte("attributes")
	bucketSnapshots  = []byte("snapshots")
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("store: cbor decoder mode: %v", err))
	}
}

// record is the stored form of an attribute value.
type record struct {
	Value     []byte    `cbor:"1,keyasint"`
	UpdatedAt time.Time `cbor:"2,keyasint"`
}

// Config configures a BoltStore.
type Config struct {
	// Path of the database file.
	Path string

	// Timeout waiting for the file lock. Defaults to 5s.
	Timeout time.Duration

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// BoltStore implements clusters.Storage and report.Publisher on bbolt.
type BoltStore struct {
	db  *bolt.DB
	log logging.LeveledLogger
}

// Open opens or creates the database.
func Open(config Config) (*BoltStore, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	db, err := bolt.Open(config.Path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAttributes, bucketSnapshots} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	s := &BoltStore{db: db}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("store")
		s.log.Debugf("opened %s", config.Path)
	}
	return s, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load implements clusters.Storage.
func (s *BoltStore) Load(key string) ([]byte, error) {
	var value []byte
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAttributes).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, clusters.ErrNotFound)
		}
		var rec record
		if err := decMode.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		value = rec.Value
		return nil
	})
	return value, err
}

// Store implements clusters.Storage.
func (s *BoltStore) Store(key string, value []byte) error {
	data, err := encMode.Marshal(record{Value: value, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAttributes).Put([]byte(key), data)
	})
	if err == nil && s.log != nil {
		s.log.Tracef("stored %s (%d bytes)", key, len(value))
	}
	return err
}

// UpdatedAt returns when key was last stored.
func (s *BoltStore) UpdatedAt(key string) (time.Time, error) {
	var at time.Time
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAttributes).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, clusters.ErrNotFound)
		}
		var rec record
		if err := decMode.Unmarshal(data, &rec); err != nil {
			return err
		}
		at = rec.UpdatedAt
		return nil
	})
	return at, err
}

func snapshotKey(p datamodel.ConcreteClusterPath) []byte {
	return fmt.Appendf(nil, "%d/%04x", p.Endpoint, uint32(p.Cluster))
}

// Publish implements report.Publisher by keeping the latest snapshot of
// each cluster.
func (s *BoltStore) Publish(_ context.Context, snap *report.Snapshot) error {
	data, err := encMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %v: %w", snap, err)
	}
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(snapshotKey(snap.Path()), data)
	})
}

// Snapshot returns the latest snapshot stored for p. Attribute values
// come back in their CBOR decoded form.
func (s *BoltStore) Snapshot(p datamodel.ConcreteClusterPath) (*report.Snapshot, error) {
	var snap report.Snapshot
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get(snapshotKey(p))
		if data == nil {
			return fmt.Errorf("snapshot %v: %w", p, clusters.ErrNotFound)
		}
		return decMode.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Snapshots returns every stored snapshot in key order.
func (s *BoltStore) Snapshots() ([]*report.Snapshot, error) {
	var out []*report.Snapshot
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			var snap report.Snapshot
			if err := decMode.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("decode snapshot %s: %w", k, err)
			}
			out = append(out, &snap)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) view(fn func(tx *bolt.Tx) error) error {
	err := s.db.View(fn)
	if errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func (s *BoltStore) update(fn func(tx *bolt.Tx) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

var (
	_ clusters.Storage = (*BoltStore)(nil)
	_ report.Publisher = (*BoltStore)(nil)
)
