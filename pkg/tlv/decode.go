package tlv

import (
	"bytes"
	"io"
)

// MaxDecodeDepth bounds container nesting accepted by Decode.
const MaxDecodeDepth = 16

// Decode converts the current element of r into a plain Go value:
// int64, uint64, bool, float64, string, []byte, nil, []any for arrays and
// lists, and map[uint32]any keyed by tag number for structures.
// Next must have been called.
func Decode(r *Reader) (any, error) {
	return decodeElement(r, 0)
}

// DecodeBytes decodes the first element of a TLV encoded buffer.
func DecodeBytes(data []byte) (any, error) {
	r := NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		return nil, err
	}
	return Decode(r)
}

func decodeElement(r *Reader, depth int) (any, error) {
	t := r.Type()
	switch {
	case t.IsSignedInt():
		return r.Int()
	case t.IsUnsignedInt():
		return r.Uint()
	case t.IsBool():
		return r.Bool()
	case t.IsFloat():
		return r.Float64()
	case t.IsUTF8String():
		return r.String()
	case t.IsBytes():
		return r.Bytes()
	case t == ElementTypeNull:
		return nil, r.Null()
	case t.IsContainer():
		if depth >= MaxDecodeDepth {
			return nil, ErrMaxDepth
		}
		return decodeContainer(r, t, depth+1)
	default:
		return nil, ErrInvalidElementType
	}
}

func decodeContainer(r *Reader, t ElementType, depth int) (any, error) {
	if err := r.EnterContainer(); err != nil {
		return nil, err
	}

	var (
		items  []any
		fields map[uint32]any
	)
	if t == ElementTypeStruct {
		fields = make(map[uint32]any)
	} else {
		items = []any{}
	}

	for {
		if err := r.Next(); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if r.IsEndOfContainer() {
			break
		}
		tag := r.Tag()
		v, err := decodeElement(r, depth)
		if err != nil {
			return nil, err
		}
		if fields != nil {
			fields[tag.TagNumber()] = v
		} else {
			items = append(items, v)
		}
	}

	if err := r.ExitContainer(); err != nil {
		return nil, err
	}
	if fields != nil {
		return fields, nil
	}
	return items, nil
}
