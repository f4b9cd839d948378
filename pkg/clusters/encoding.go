package clusters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// ErrMissingField is wrapped into datamodel.ErrInvalidCommand when a
// mandatory command field is absent.
var ErrMissingField = errors.New("missing required field")

// TLVUnmarshaler is implemented by command request structs. UnmarshalTLV
// is called with the reader positioned on the request structure.
type TLVUnmarshaler interface {
	UnmarshalTLV(r *tlv.Reader) error
}

// TLVMarshaler is implemented by command response structs.
type TLVMarshaler interface {
	MarshalTLV(w *tlv.Writer) error
}

// EncodeResponse encodes a command response.
func EncodeResponse(resp TLVMarshaler) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := resp.MarshalTLV(tlv.NewWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRequest decodes the command fields read from r into req. An empty
// payload is a valid request for commands whose fields are all optional.
// Decode failures are reported as datamodel.ErrInvalidCommand.
func DecodeRequest(r *tlv.Reader, req TLVUnmarshaler) error {
	if r == nil {
		return nil
	}
	if err := r.Next(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", datamodel.ErrInvalidCommand, err)
	}
	if r.Type() != tlv.ElementTypeStruct {
		return fmt.Errorf("%w: command fields are %v, not a structure", datamodel.ErrInvalidCommand, r.Type())
	}
	if err := req.UnmarshalTLV(r); err != nil {
		if errors.Is(err, datamodel.ErrConstraintError) || errors.Is(err, datamodel.ErrInvalidCommand) {
			return err
		}
		return fmt.Errorf("%w: %w", datamodel.ErrInvalidCommand, err)
	}
	return nil
}

// ReadFields iterates over the context-tagged members of the structure r
// is positioned on. field must consume the value or call r.Skip; members
// without a context tag are skipped.
func ReadFields(r *tlv.Reader, field func(tag uint8) error) error {
	if err := r.EnterContainer(); err != nil {
		return err
	}
	for {
		if err := r.Next(); err != nil {
			return err
		}
		if r.IsEndOfContainer() {
			break
		}
		if !r.Tag().IsContext() {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := field(uint8(r.Tag().TagNumber())); err != nil {
			return err
		}
	}
	return r.ExitContainer()
}

// PutStruct writes an anonymous structure whose members are written by fn.
func PutStruct(w *tlv.Writer, tag tlv.Tag, fn func(w *tlv.Writer) error) error {
	if err := w.StartStructure(tag); err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return w.EndContainer()
}

// NonEmptyPrefix returns the leading entries of a fixed-size label table
// up to the first empty string.
func NonEmptyPrefix(labels []string) []string {
	for i, l := range labels {
		if l == "" {
			return labels[:i]
		}
	}
	return labels
}
