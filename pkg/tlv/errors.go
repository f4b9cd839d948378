package tlv

import "errors"

var (
	// ErrInvalidElementType is returned for element types outside Spec A.7.1.
	ErrInvalidElementType = errors.New("tlv: invalid element type")

	// ErrTypeMismatch is returned when reading a value as the wrong type.
	ErrTypeMismatch = errors.New("tlv: type mismatch")

	// ErrNotInContainer is returned when closing or exiting with no open container.
	ErrNotInContainer = errors.New("tlv: not in container")

	// ErrInvalidUTF8 is returned for UTF-8 strings with invalid sequences.
	ErrInvalidUTF8 = errors.New("tlv: invalid UTF-8 string")

	// ErrNoElement is returned when accessing a value before Next.
	ErrNoElement = errors.New("tlv: no current element")

	// ErrValueAlreadyRead is returned when reading the same value twice.
	ErrValueAlreadyRead = errors.New("tlv: value already read")

	// ErrOverflow is returned when a value does not fit the requested width.
	ErrOverflow = errors.New("tlv: value overflow")

	// ErrLengthTooLarge is returned for string elements longer than MaxElementLength.
	ErrLengthTooLarge = errors.New("tlv: element length too large")

	// ErrMaxDepth is returned by Decode for nesting beyond MaxDecodeDepth.
	ErrMaxDepth = errors.New("tlv: maximum nesting depth exceeded")
)
