// Package tlv implements the Matter TLV (Tag-Length-Value) encoding used for
// attribute values, command payloads and attribute report frames
// (Matter Core Specification, Appendix A).
package tlv

// ElementType is the element type carried in the lower 5 bits of the
// control octet (Spec A.7.1).
type ElementType int

const (
	ElementTypeInt8    ElementType = 0x00
	ElementTypeInt16   ElementType = 0x01
	ElementTypeInt32   ElementType = 0x02
	ElementTypeInt64   ElementType = 0x03
	ElementTypeUInt8   ElementType = 0x04
	ElementTypeUInt16  ElementType = 0x05
	ElementTypeUInt32  ElementType = 0x06
	ElementTypeUInt64  ElementType = 0x07
	ElementTypeFalse   ElementType = 0x08
	ElementTypeTrue    ElementType = 0x09
	ElementTypeFloat32 ElementType = 0x0A
	ElementTypeFloat64 ElementType = 0x0B
	ElementTypeUTF8_1  ElementType = 0x0C
	ElementTypeUTF8_2  ElementType = 0x0D
	ElementTypeUTF8_4  ElementType = 0x0E
	ElementTypeUTF8_8  ElementType = 0x0F
	ElementTypeBytes1  ElementType = 0x10
	ElementTypeBytes2  ElementType = 0x11
	ElementTypeBytes4  ElementType = 0x12
	ElementTypeBytes8  ElementType = 0x13
	ElementTypeNull    ElementType = 0x14
	ElementTypeStruct  ElementType = 0x15
	ElementTypeArray   ElementType = 0x16
	ElementTypeList    ElementType = 0x17
	ElementTypeEnd     ElementType = 0x18
)

var elementTypeNames = [...]string{
	"Int8", "Int16", "Int32", "Int64",
	"UInt8", "UInt16", "UInt32", "UInt64",
	"False", "True", "Float32", "Float64",
	"UTF8_1", "UTF8_2", "UTF8_4", "UTF8_8",
	"Bytes1", "Bytes2", "Bytes4", "Bytes8",
	"Null", "Struct", "Array", "List", "EndOfContainer",
}

// String returns the name of the element type.
func (e ElementType) String() string {
	if e < 0 || int(e) >= len(elementTypeNames) {
		return "Unknown"
	}
	return elementTypeNames[e]
}

// IsSignedInt reports whether e is a signed integer type.
func (e ElementType) IsSignedInt() bool {
	return e >= ElementTypeInt8 && e <= ElementTypeInt64
}

// IsUnsignedInt reports whether e is an unsigned integer type.
func (e ElementType) IsUnsignedInt() bool {
	return e >= ElementTypeUInt8 && e <= ElementTypeUInt64
}

// IsInt reports whether e is any integer type.
func (e ElementType) IsInt() bool {
	return e.IsSignedInt() || e.IsUnsignedInt()
}

// IsBool reports whether e is a boolean.
func (e ElementType) IsBool() bool {
	return e == ElementTypeFalse || e == ElementTypeTrue
}

// IsFloat reports whether e is a floating point type.
func (e ElementType) IsFloat() bool {
	return e == ElementTypeFloat32 || e == ElementTypeFloat64
}

// IsUTF8String reports whether e is a UTF-8 string.
func (e ElementType) IsUTF8String() bool {
	return e >= ElementTypeUTF8_1 && e <= ElementTypeUTF8_8
}

// IsBytes reports whether e is an octet string.
func (e ElementType) IsBytes() bool {
	return e >= ElementTypeBytes1 && e <= ElementTypeBytes8
}

// IsString reports whether e is any length-prefixed string type.
func (e ElementType) IsString() bool {
	return e.IsUTF8String() || e.IsBytes()
}

// IsContainer reports whether e opens a structure, array or list.
func (e ElementType) IsContainer() bool {
	return e == ElementTypeStruct || e == ElementTypeArray || e == ElementTypeList
}

// ValueSize returns the width of the value field for fixed-size types,
// 0 for everything else.
func (e ElementType) ValueSize() int {
	switch {
	case e.IsInt():
		// Int8..Int64 and UInt8..UInt64 encode their width in the low 2 bits.
		return 1 << (int(e) & 0x03)
	case e == ElementTypeFloat32:
		return 4
	case e == ElementTypeFloat64:
		return 8
	default:
		return 0
	}
}

// LengthFieldSize returns the width of the length prefix for string types,
// 0 for everything else.
func (e ElementType) LengthFieldSize() int {
	if !e.IsString() {
		return 0
	}
	return 1 << (int(e-ElementTypeUTF8_1) & 0x03)
}

const (
	elementTypeMask = 0x1F
	tagControlShift = 5
)

// ParseControlOctet splits a control octet into element type and tag control.
func ParseControlOctet(b byte) (ElementType, TagControl) {
	return ElementType(b & elementTypeMask), TagControl(b >> tagControlShift)
}

// BuildControlOctet combines an element type and tag control into a control octet.
func BuildControlOctet(elemType ElementType, tagCtrl TagControl) byte {
	return byte(elemType&elementTypeMask) | byte(tagCtrl<<tagControlShift)
}
