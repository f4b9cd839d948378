package datamodel

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Context tags of an attribute data frame (AttributeDataIB).
// Spec: Section 10.6.4
const (
	AttrDataTagDataVersion uint8 = 0
	AttrDataTagPath        uint8 = 1
	AttrDataTagData        uint8 = 2
)

// Context tags of the attribute path inside a frame (AttributePathIB).
// Spec: Section 10.6.2
const (
	AttrPathTagEndpoint  uint8 = 2
	AttrPathTagCluster   uint8 = 3
	AttrPathTagAttribute uint8 = 4
)

// AttrDataEncoder is the output side of one attribute read. It carries the
// requester's last known data version and decides whether the read needs
// to emit anything at all.
type AttrDataEncoder struct {
	sink      io.Writer
	path      ConcreteAttributePath
	lastKnown *DataVersion

	emitted bool
	version DataVersion
}

// NewAttrDataEncoder creates an encoder writing frames for req to sink.
func NewAttrDataEncoder(sink io.Writer, req ReadAttributeRequest) *AttrDataEncoder {
	return &AttrDataEncoder{
		sink:      sink,
		path:      req.Path,
		lastKnown: req.DataVersion,
	}
}

// WithDataVersion opens a writer for a value at version current. It
// returns (nil, false) when the requester already holds current, in which
// case the caller must not serialize anything.
func (e *AttrDataEncoder) WithDataVersion(current DataVersion) (*AttrDataWriter, bool) {
	if e.lastKnown != nil && *e.lastKnown == current {
		return nil, false
	}
	w := &AttrDataWriter{enc: e, version: current}
	w.tw = tlv.NewWriter(&w.buf)
	return w, true
}

// Emitted reports whether a frame reached the sink.
func (e *AttrDataEncoder) Emitted() bool {
	return e.emitted
}

// DataVersion returns the version of the emitted frame.
func (e *AttrDataEncoder) DataVersion() DataVersion {
	return e.version
}

// AttrDataWriter buffers one attribute value. Nothing reaches the sink
// until Complete succeeds.
type AttrDataWriter struct {
	enc     *AttrDataEncoder
	version DataVersion
	buf     bytes.Buffer
	tw      *tlv.Writer
	done    bool
}

// TLV returns the writer the value is encoded with.
func (w *AttrDataWriter) TLV() *tlv.Writer {
	return w.tw
}

// Tag returns the tag the value must be written with.
func (w *AttrDataWriter) Tag() tlv.Tag {
	return tlv.ContextTag(AttrDataTagData)
}

// PutInt encodes a signed integer value.
func (w *AttrDataWriter) PutInt(v int64) error {
	return w.tw.PutInt(w.Tag(), v)
}

// PutUint encodes an unsigned integer value.
func (w *AttrDataWriter) PutUint(v uint64) error {
	return w.tw.PutUint(w.Tag(), v)
}

// PutBool encodes a boolean value.
func (w *AttrDataWriter) PutBool(v bool) error {
	return w.tw.PutBool(w.Tag(), v)
}

// PutString encodes a string value.
func (w *AttrDataWriter) PutString(v string) error {
	return w.tw.PutString(w.Tag(), v)
}

// PutNull encodes null.
func (w *AttrDataWriter) PutNull() error {
	return w.tw.PutNull(w.Tag())
}

// PutStringList encodes strs as an array of strings.
func (w *AttrDataWriter) PutStringList(strs []string) error {
	if err := w.tw.StartArray(w.Tag()); err != nil {
		return err
	}
	for _, s := range strs {
		if err := w.tw.PutString(tlv.Anonymous(), s); err != nil {
			return err
		}
	}
	return w.tw.EndContainer()
}

// Encode lets fn encode an arbitrary value with the value tag.
func (w *AttrDataWriter) Encode(fn func(tw *tlv.Writer, tag tlv.Tag) error) error {
	return fn(w.tw, w.Tag())
}

// Complete appends the data version and path to the buffered value and
// writes the whole frame to the sink in one call.
func (w *AttrDataWriter) Complete() error {
	if w.done {
		return ErrAlreadyCompleted
	}
	if w.buf.Len() == 0 {
		return fmt.Errorf("%w: no value encoded for %v", ErrInternalInconsistency, w.enc.path)
	}
	if w.tw.ContainerDepth() != 0 {
		return fmt.Errorf("%w: unterminated container", ErrEncodingFailure)
	}

	var frame bytes.Buffer
	fw := tlv.NewWriter(&frame)
	if err := w.writeFrame(fw, &frame); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}
	if _, err := w.enc.sink.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}

	w.done = true
	w.enc.emitted = true
	w.enc.version = w.version
	return nil
}

func (w *AttrDataWriter) writeFrame(fw *tlv.Writer, frame *bytes.Buffer) error {
	if err := fw.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	frame.Write(w.buf.Bytes())
	if err := fw.PutUint(tlv.ContextTag(AttrDataTagDataVersion), uint64(w.version)); err != nil {
		return err
	}

	p := w.enc.path
	if err := fw.StartList(tlv.ContextTag(AttrDataTagPath)); err != nil {
		return err
	}
	if err := fw.PutUint(tlv.ContextTag(AttrPathTagEndpoint), uint64(p.Endpoint)); err != nil {
		return err
	}
	if err := fw.PutUint(tlv.ContextTag(AttrPathTagCluster), uint64(p.Cluster)); err != nil {
		return err
	}
	if err := fw.PutUint(tlv.ContextTag(AttrPathTagAttribute), uint64(p.Attribute)); err != nil {
		return err
	}
	if err := fw.EndContainer(); err != nil {
		return err
	}
	return fw.EndContainer()
}

// AttributeData is a decoded attribute data frame.
type AttributeData struct {
	Path        ConcreteAttributePath
	DataVersion DataVersion
	Value       any
}

// DecodeAttributeData parses a frame produced by AttrDataWriter.Complete.
// Value holds the generic decoding of the attribute value (see tlv.Decode).
func DecodeAttributeData(data []byte) (*AttributeData, error) {
	r := tlv.NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		return nil, err
	}
	if err := r.EnterContainer(); err != nil {
		return nil, fmt.Errorf("attribute data: %w", err)
	}

	out := &AttributeData{}
	var haveVersion bool
	for {
		if err := r.Next(); err != nil {
			return nil, fmt.Errorf("attribute data: %w", err)
		}
		if r.IsEndOfContainer() {
			break
		}
		switch r.Tag().TagNumber() {
		case uint32(AttrDataTagDataVersion):
			v, err := r.Uint()
			if err != nil {
				return nil, fmt.Errorf("attribute data version: %w", err)
			}
			out.DataVersion = DataVersion(v)
			haveVersion = true
		case uint32(AttrDataTagPath):
			if err := decodeAttributePath(r, &out.Path); err != nil {
				return nil, fmt.Errorf("attribute path: %w", err)
			}
		case uint32(AttrDataTagData):
			v, err := tlv.Decode(r)
			if err != nil {
				return nil, fmt.Errorf("attribute value: %w", err)
			}
			out.Value = v
		default:
			if err := r.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if !haveVersion {
		return nil, fmt.Errorf("attribute data: missing data version")
	}
	return out, r.ExitContainer()
}

func decodeAttributePath(r *tlv.Reader, p *ConcreteAttributePath) error {
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
		v, err := r.Uint()
		if err != nil {
			return err
		}
		switch r.Tag().TagNumber() {
		case uint32(AttrPathTagEndpoint):
			p.Endpoint = EndpointID(v)
		case uint32(AttrPathTagCluster):
			p.Cluster = ClusterID(v)
		case uint32(AttrPathTagAttribute):
			p.Attribute = AttributeID(v)
		}
	}
	return r.ExitContainer()
}

// ReadAttributeData reads one attribute of c and decodes the emitted frame.
// It returns nil data when the read was skipped by the version filter.
func ReadAttributeData(ctx context.Context, c Cluster, id AttributeID, lastKnown *DataVersion) (*AttributeData, error) {
	var sink bytes.Buffer
	req := ReadAttributeRequest{
		Path:           ConcreteAttributePath{Endpoint: c.EndpointID(), Cluster: c.ID(), Attribute: id},
		OperationFlags: OpFlagInternal,
		DataVersion:    lastKnown,
	}
	enc := NewAttrDataEncoder(&sink, req)
	if err := c.ReadAttribute(ctx, req, enc); err != nil {
		return nil, err
	}
	if !enc.Emitted() {
		return nil, nil
	}
	return DecodeAttributeData(sink.Bytes())
}
