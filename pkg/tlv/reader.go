package tlv

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// MaxElementLength bounds the declared length of a string or octet string
// element. Longer elements are rejected before any allocation.
const MaxElementLength = 1 << 20

// Reader decodes TLV elements from an io.Reader. Call Next to advance to an
// element, then one of the typed accessors to consume its value.
type Reader struct {
	r              io.Reader
	containerStack []ElementType

	hasElement bool
	elemType   ElementType
	tag        Tag
	valueRead  bool

	valueBuf  [8]byte
	stringLen uint64
}

// NewReader creates a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next advances to the next element. Returns io.EOF at end of input.
func (r *Reader) Next() error {
	if r.hasElement && !r.valueRead {
		if err := r.skipValue(); err != nil {
			return err
		}
	}

	var ctrl [1]byte
	if _, err := io.ReadFull(r.r, ctrl[:]); err != nil {
		return err
	}

	elemType, tagCtrl := ParseControlOctet(ctrl[0])
	if elemType > ElementTypeEnd {
		return ErrInvalidElementType
	}

	tag, err := ReadTag(r.r, tagCtrl)
	if err != nil {
		return err
	}

	r.elemType = elemType
	r.tag = tag
	r.stringLen = 0

	switch {
	case elemType.ValueSize() > 0:
		if _, err := io.ReadFull(r.r, r.valueBuf[:elemType.ValueSize()]); err != nil {
			return err
		}
	case elemType.IsString():
		var lenBuf [8]byte
		if _, err := io.ReadFull(r.r, lenBuf[:elemType.LengthFieldSize()]); err != nil {
			return err
		}
		n := binary.LittleEndian.Uint64(lenBuf[:])
		if n > MaxElementLength {
			return ErrLengthTooLarge
		}
		r.stringLen = n
	}

	r.hasElement = true
	r.valueRead = false
	return nil
}

// Type returns the type of the current element.
func (r *Reader) Type() ElementType {
	return r.elemType
}

// Tag returns the tag of the current element.
func (r *Reader) Tag() Tag {
	return r.tag
}

// IsEndOfContainer reports whether the current element closes a container.
func (r *Reader) IsEndOfContainer() bool {
	return r.hasElement && r.elemType == ElementTypeEnd
}

// ContainerDepth returns the number of entered containers.
func (r *Reader) ContainerDepth() int {
	return len(r.containerStack)
}

func (r *Reader) consume(ok bool) error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.valueRead {
		return ErrValueAlreadyRead
	}
	if !ok {
		return ErrTypeMismatch
	}
	r.valueRead = true
	return nil
}

// Int returns the current element as a signed integer.
func (r *Reader) Int() (int64, error) {
	if err := r.consume(r.elemType.IsSignedInt()); err != nil {
		return 0, err
	}
	le := binary.LittleEndian
	switch r.elemType {
	case ElementTypeInt8:
		return int64(int8(r.valueBuf[0])), nil
	case ElementTypeInt16:
		return int64(int16(le.Uint16(r.valueBuf[:]))), nil
	case ElementTypeInt32:
		return int64(int32(le.Uint32(r.valueBuf[:]))), nil
	default:
		return int64(le.Uint64(r.valueBuf[:])), nil
	}
}

// Uint returns the current element as an unsigned integer.
func (r *Reader) Uint() (uint64, error) {
	if err := r.consume(r.elemType.IsUnsignedInt()); err != nil {
		return 0, err
	}
	le := binary.LittleEndian
	switch r.elemType {
	case ElementTypeUInt8:
		return uint64(r.valueBuf[0]), nil
	case ElementTypeUInt16:
		return uint64(le.Uint16(r.valueBuf[:])), nil
	case ElementTypeUInt32:
		return uint64(le.Uint32(r.valueBuf[:])), nil
	default:
		return le.Uint64(r.valueBuf[:]), nil
	}
}

// Int16 returns the current element as an int16, failing with ErrOverflow
// when the encoded value does not fit.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Int()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, ErrOverflow
	}
	return int16(v), nil
}

// Uint8 returns the current element as a uint8, failing with ErrOverflow
// when the encoded value does not fit.
func (r *Reader) Uint8() (uint8, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, ErrOverflow
	}
	return uint8(v), nil
}

// Uint16 returns the current element as a uint16, failing with ErrOverflow
// when the encoded value does not fit.
func (r *Reader) Uint16() (uint16, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, ErrOverflow
	}
	return uint16(v), nil
}

// Bool returns the current element as a boolean.
func (r *Reader) Bool() (bool, error) {
	if err := r.consume(r.elemType.IsBool()); err != nil {
		return false, err
	}
	return r.elemType == ElementTypeTrue, nil
}

// Float64 returns the current element as a float64. Float32 elements are widened.
func (r *Reader) Float64() (float64, error) {
	if err := r.consume(r.elemType.IsFloat()); err != nil {
		return 0, err
	}
	if r.elemType == ElementTypeFloat32 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(r.valueBuf[:]))), nil
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.valueBuf[:])), nil
}

// String returns the current element as a UTF-8 string.
func (r *Reader) String() (string, error) {
	if err := r.consume(r.elemType.IsUTF8String()); err != nil {
		return "", err
	}
	data, err := r.readStringData()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// Bytes returns the current element as an octet string.
func (r *Reader) Bytes() ([]byte, error) {
	if err := r.consume(r.elemType.IsBytes()); err != nil {
		return nil, err
	}
	return r.readStringData()
}

func (r *Reader) readStringData() ([]byte, error) {
	if r.stringLen == 0 {
		return nil, nil
	}
	if r.stringLen > MaxElementLength {
		return nil, ErrLengthTooLarge
	}
	data := make([]byte, r.stringLen)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Null verifies the current element is null.
func (r *Reader) Null() error {
	return r.consume(r.elemType == ElementTypeNull)
}

// IsNull reports whether the current element is null without consuming it.
func (r *Reader) IsNull() bool {
	return r.hasElement && r.elemType == ElementTypeNull
}

// EnterContainer enters the current structure, array or list.
func (r *Reader) EnterContainer() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if !r.elemType.IsContainer() {
		return ErrTypeMismatch
	}
	r.containerStack = append(r.containerStack, r.elemType)
	r.hasElement = false
	r.valueRead = true
	return nil
}

// ExitContainer skips to the end of the innermost entered container.
func (r *Reader) ExitContainer() error {
	if len(r.containerStack) == 0 {
		return ErrNotInContainer
	}

	if !r.IsEndOfContainer() {
		depth := 1
		if r.hasElement && r.elemType.IsContainer() && !r.valueRead {
			depth++
		}
		for depth > 0 {
			if err := r.Next(); err != nil {
				return err
			}
			switch {
			case r.elemType == ElementTypeEnd:
				depth--
			case r.elemType.IsContainer():
				depth++
			}
		}
	}

	r.containerStack = r.containerStack[:len(r.containerStack)-1]
	r.hasElement = false
	return nil
}

// Skip consumes the current element, including nested content.
func (r *Reader) Skip() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.elemType.IsContainer() {
		if err := r.EnterContainer(); err != nil {
			return err
		}
		return r.ExitContainer()
	}
	return r.skipValue()
}

func (r *Reader) skipValue() error {
	if r.valueRead {
		return nil
	}
	r.valueRead = true
	if r.elemType.IsString() && r.stringLen > 0 {
		if r.stringLen > MaxElementLength {
			return ErrLengthTooLarge
		}
		_, err := io.CopyN(io.Discard, r.r, int64(r.stringLen))
		return err
	}
	return nil
}
