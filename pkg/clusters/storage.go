package clusters

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// ErrNotFound is returned by Storage.Load for keys never stored.
var ErrNotFound = errors.New("storage: key not found")

// Storage persists non-volatile attribute values.
type Storage interface {
	// Load retrieves a value by key.
	Load(key string) ([]byte, error)
	// Store persists a value.
	Store(key string, value []byte) error
}

// AttributeKey returns the storage key of an attribute.
func AttributeKey(p datamodel.ConcreteAttributePath) string {
	return fmt.Sprintf("%d/%04x/%04x", p.Endpoint, uint32(p.Cluster), uint32(p.Attribute))
}

// StoreAttribute persists one attribute value as a single TLV element.
func StoreAttribute(s Storage, p datamodel.ConcreteAttributePath, put func(w *tlv.Writer, tag tlv.Tag) error) error {
	if s == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := put(tlv.NewWriter(&buf), tlv.Anonymous()); err != nil {
		return err
	}
	return s.Store(AttributeKey(p), buf.Bytes())
}

// LoadAttribute loads a value stored by StoreAttribute, decoded with
// tlv.Decode. ok is false when nothing was stored or the value is corrupt.
func LoadAttribute(s Storage, p datamodel.ConcreteAttributePath) (v any, ok bool) {
	if s == nil {
		return nil, false
	}
	data, err := s.Load(AttributeKey(p))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	v, err = tlv.DecodeBytes(data)
	if err != nil {
		return nil, false
	}
	return v, true
}

// LoadNullableUint8 loads a nullable uint8 attribute.
func LoadNullableUint8(s Storage, p datamodel.ConcreteAttributePath) (datamodel.Nullable[uint8], bool) {
	v, ok := LoadAttribute(s, p)
	if !ok {
		return datamodel.Null[uint8](), false
	}
	switch x := v.(type) {
	case nil:
		return datamodel.Null[uint8](), true
	case uint64:
		if x <= 0xFF {
			return datamodel.NewNullable(uint8(x)), true
		}
	}
	return datamodel.Null[uint8](), false
}

// StoreNullableUint8 persists a nullable uint8 attribute.
func StoreNullableUint8(s Storage, p datamodel.ConcreteAttributePath, n datamodel.Nullable[uint8]) error {
	return StoreAttribute(s, p, func(w *tlv.Writer, tag tlv.Tag) error {
		return datamodel.PutNullableUint(w, tag, n)
	})
}

// MemoryStorage is an in-memory Storage.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Store(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
