package tlv

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Writer encodes TLV elements to an io.Writer.
type Writer struct {
	w              io.Writer
	containerStack []ElementType
}

// NewWriter creates a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) writeControlAndTag(elemType ElementType, tag Tag) error {
	if _, err := w.w.Write([]byte{BuildControlOctet(elemType, tag.Control())}); err != nil {
		return err
	}
	_, err := tag.WriteTo(w.w)
	return err
}

func (w *Writer) writeFixedValue(elemType ElementType, tag Tag, value []byte) error {
	if err := w.writeControlAndTag(elemType, tag); err != nil {
		return err
	}
	_, err := w.w.Write(value)
	return err
}

// PutInt writes a signed integer using the narrowest width that holds v.
func (w *Writer) PutInt(tag Tag, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))

	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return w.writeFixedValue(ElementTypeInt8, tag, buf[:1])
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return w.writeFixedValue(ElementTypeInt16, tag, buf[:2])
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return w.writeFixedValue(ElementTypeInt32, tag, buf[:4])
	default:
		return w.writeFixedValue(ElementTypeInt64, tag, buf[:8])
	}
}

// PutUint writes an unsigned integer using the narrowest width that holds v.
func (w *Writer) PutUint(tag Tag, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)

	switch {
	case v <= math.MaxUint8:
		return w.writeFixedValue(ElementTypeUInt8, tag, buf[:1])
	case v <= math.MaxUint16:
		return w.writeFixedValue(ElementTypeUInt16, tag, buf[:2])
	case v <= math.MaxUint32:
		return w.writeFixedValue(ElementTypeUInt32, tag, buf[:4])
	default:
		return w.writeFixedValue(ElementTypeUInt64, tag, buf[:8])
	}
}

// PutBool writes a boolean.
func (w *Writer) PutBool(tag Tag, v bool) error {
	if v {
		return w.writeControlAndTag(ElementTypeTrue, tag)
	}
	return w.writeControlAndTag(ElementTypeFalse, tag)
}

// PutString writes a UTF-8 string. Returns ErrInvalidUTF8 for invalid input.
func (w *Writer) PutString(tag Tag, v string) error {
	if !utf8.ValidString(v) {
		return ErrInvalidUTF8
	}
	return w.writeString(ElementTypeUTF8_1, tag, []byte(v))
}

// PutBytes writes an octet string.
func (w *Writer) PutBytes(tag Tag, v []byte) error {
	return w.writeString(ElementTypeBytes1, tag, v)
}

// PutNull writes a null value.
func (w *Writer) PutNull(tag Tag) error {
	return w.writeControlAndTag(ElementTypeNull, tag)
}

// StartStructure opens a structure container.
func (w *Writer) StartStructure(tag Tag) error {
	return w.startContainer(ElementTypeStruct, tag)
}

// StartArray opens an array container.
func (w *Writer) StartArray(tag Tag) error {
	return w.startContainer(ElementTypeArray, tag)
}

// StartList opens a list container.
func (w *Writer) StartList(tag Tag) error {
	return w.startContainer(ElementTypeList, tag)
}

func (w *Writer) startContainer(elemType ElementType, tag Tag) error {
	if err := w.writeControlAndTag(elemType, tag); err != nil {
		return err
	}
	w.containerStack = append(w.containerStack, elemType)
	return nil
}

// EndContainer closes the innermost open container.
func (w *Writer) EndContainer() error {
	if len(w.containerStack) == 0 {
		return ErrNotInContainer
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
	_, err := w.w.Write([]byte{byte(ElementTypeEnd)})
	return err
}

// ContainerDepth returns the number of open containers.
func (w *Writer) ContainerDepth() int {
	return len(w.containerStack)
}

// writeString writes a length-prefixed string. base is the 1-octet length
// variant (UTF8_1 or Bytes1); wider variants follow it in order.
func (w *Writer) writeString(base ElementType, tag Tag, data []byte) error {
	length := uint64(len(data))

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], length)

	var step, lenSize int
	switch {
	case length <= math.MaxUint8:
		step, lenSize = 0, 1
	case length <= math.MaxUint16:
		step, lenSize = 1, 2
	case length <= math.MaxUint32:
		step, lenSize = 2, 4
	default:
		step, lenSize = 3, 8
	}

	if err := w.writeControlAndTag(base+ElementType(step), tag); err != nil {
		return err
	}
	if _, err := w.w.Write(lenBuf[:lenSize]); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}
