package tlv

import (
	"encoding/binary"
	"io"
)

// TagControl is the tag form carried in the upper 3 bits of the control
// octet (Spec A.7.2).
type TagControl int

const (
	TagControlAnonymous        TagControl = 0
	TagControlContext          TagControl = 1
	TagControlCommonProfile2   TagControl = 2
	TagControlCommonProfile4   TagControl = 3
	TagControlImplicitProfile2 TagControl = 4
	TagControlImplicitProfile4 TagControl = 5
	TagControlFullyQualified6  TagControl = 6
	TagControlFullyQualified8  TagControl = 7
)

// Size returns the encoded size of a tag with this control form.
func (tc TagControl) Size() int {
	switch tc {
	case TagControlContext:
		return 1
	case TagControlCommonProfile2, TagControlImplicitProfile2:
		return 2
	case TagControlCommonProfile4, TagControlImplicitProfile4:
		return 4
	case TagControlFullyQualified6:
		return 6
	case TagControlFullyQualified8:
		return 8
	default:
		return 0
	}
}

// Tag is a TLV element tag (Spec A.2).
type Tag struct {
	control       TagControl
	vendorID      uint16
	profileNumber uint16
	tagNumber     uint32
}

// Anonymous returns the anonymous tag.
func Anonymous() Tag {
	return Tag{control: TagControlAnonymous}
}

// ContextTag returns a context-specific tag.
func ContextTag(tagNum uint8) Tag {
	return Tag{control: TagControlContext, tagNumber: uint32(tagNum)}
}

// CommonProfileTag returns a tag in the Matter common profile.
func CommonProfileTag(tagNum uint32) Tag {
	if tagNum > 0xFFFF {
		return Tag{control: TagControlCommonProfile4, tagNumber: tagNum}
	}
	return Tag{control: TagControlCommonProfile2, tagNumber: tagNum}
}

// Control returns the tag control form.
func (t Tag) Control() TagControl {
	return t.control
}

// IsAnonymous reports whether the tag is anonymous.
func (t Tag) IsAnonymous() bool {
	return t.control == TagControlAnonymous
}

// IsContext reports whether the tag is context-specific.
func (t Tag) IsContext() bool {
	return t.control == TagControlContext
}

// TagNumber returns the tag number.
func (t Tag) TagNumber() uint32 {
	return t.tagNumber
}

// VendorID returns the vendor ID of a fully-qualified tag.
func (t Tag) VendorID() uint16 {
	return t.vendorID
}

// ProfileNumber returns the profile number of a fully-qualified tag.
func (t Tag) ProfileNumber() uint16 {
	return t.profileNumber
}

// WriteTo writes the tag bytes in little-endian order (Spec A.8).
func (t Tag) WriteTo(w io.Writer) (int64, error) {
	var buf [8]byte
	le := binary.LittleEndian

	switch t.control {
	case TagControlContext:
		buf[0] = byte(t.tagNumber)
	case TagControlCommonProfile2, TagControlImplicitProfile2:
		le.PutUint16(buf[:], uint16(t.tagNumber))
	case TagControlCommonProfile4, TagControlImplicitProfile4:
		le.PutUint32(buf[:], t.tagNumber)
	case TagControlFullyQualified6:
		le.PutUint16(buf[0:], t.vendorID)
		le.PutUint16(buf[2:], t.profileNumber)
		le.PutUint16(buf[4:], uint16(t.tagNumber))
	case TagControlFullyQualified8:
		le.PutUint16(buf[0:], t.vendorID)
		le.PutUint16(buf[2:], t.profileNumber)
		le.PutUint32(buf[4:], t.tagNumber)
	}

	size := t.control.Size()
	if size == 0 {
		return 0, nil
	}
	n, err := w.Write(buf[:size])
	return int64(n), err
}

// ReadTag reads a tag of the given control form.
func ReadTag(r io.Reader, ctrl TagControl) (Tag, error) {
	tag := Tag{control: ctrl}
	size := ctrl.Size()
	if size == 0 {
		return tag, nil
	}

	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return tag, err
	}

	le := binary.LittleEndian
	switch ctrl {
	case TagControlContext:
		tag.tagNumber = uint32(buf[0])
	case TagControlCommonProfile2, TagControlImplicitProfile2:
		tag.tagNumber = uint32(le.Uint16(buf[:]))
	case TagControlCommonProfile4, TagControlImplicitProfile4:
		tag.tagNumber = le.Uint32(buf[:])
	case TagControlFullyQualified6:
		tag.vendorID = le.Uint16(buf[0:])
		tag.profileNumber = le.Uint16(buf[2:])
		tag.tagNumber = uint32(le.Uint16(buf[4:]))
	case TagControlFullyQualified8:
		tag.vendorID = le.Uint16(buf[0:])
		tag.profileNumber = le.Uint16(buf[2:])
		tag.tagNumber = le.Uint32(buf[4:])
	}
	return tag, nil
}
