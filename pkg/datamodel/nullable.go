package datamodel

import "github.com/backkem/matter-appliances/pkg/tlv"

// Nullable is a value of a nullable (X quality) attribute.
type Nullable[T comparable] struct {
	Value T
	Valid bool
}

// NewNullable returns a non-null value.
func NewNullable[T comparable](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

// Null returns the null value.
func Null[T comparable]() Nullable[T] {
	return Nullable[T]{}
}

// IsNull reports whether n is null.
func (n Nullable[T]) IsNull() bool {
	return !n.Valid
}

// Ptr returns nil for null, otherwise a pointer to a copy of the value.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// PutNullableUint encodes a nullable unsigned integer.
func PutNullableUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](w *tlv.Writer, tag tlv.Tag, n Nullable[T]) error {
	if !n.Valid {
		return w.PutNull(tag)
	}
	return w.PutUint(tag, uint64(n.Value))
}

// ReadNullableUint8 decodes a nullable uint8 from the current element.
func ReadNullableUint8(r *tlv.Reader) (Nullable[uint8], error) {
	if r.IsNull() {
		return Null[uint8](), r.Null()
	}
	v, err := r.Uint8()
	if err != nil {
		return Null[uint8](), err
	}
	return NewNullable(v), nil
}
