package datamodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/backkem/matter-appliances/pkg/tlv"
)

// AttributeReadFunc encodes the cluster-specific attribute id into w.
// It is only called for attributes declared in the cluster metadata.
type AttributeReadFunc func(id AttributeID, w *AttrDataWriter) error

// AttributeWriteFunc decodes and applies a write to a declared, writable
// attribute.
type AttributeWriteFunc func(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader) error

// CommandResponse is a typed command response.
type CommandResponse interface {
	// ResponseCommandID returns the generated command ID of the response.
	ResponseCommandID() CommandID

	// MarshalTLV encodes the response fields as an anonymous structure.
	MarshalTLV(w *tlv.Writer) error
}

// CommandFunc executes an accepted command. A nil response means a
// status-only reply.
type CommandFunc func(ctx context.Context, req InvokeRequest, r *tlv.Reader) (CommandResponse, error)

// ClusterBase provides the dispatch shared by every cluster instance:
// global attributes, accepted command filtering and the data version.
// Embed it in a cluster implementation.
type ClusterBase struct {
	meta       *ClusterMetadata
	endpointID EndpointID
	dataver    *Dataver
}

// NewClusterBase creates a cluster base for meta on endpointID.
// dv may be nil, in which case the data version starts at a random value
// per Spec 7.10.3.
func NewClusterBase(meta *ClusterMetadata, endpointID EndpointID, dv *Dataver) *ClusterBase {
	if dv == nil {
		dv = NewRandomDataver()
	}
	return &ClusterBase{
		meta:       meta,
		endpointID: endpointID,
		dataver:    dv,
	}
}

// ID returns the cluster ID.
func (c *ClusterBase) ID() ClusterID {
	return c.meta.ID
}

// EndpointID returns the endpoint this cluster belongs to.
func (c *ClusterBase) EndpointID() EndpointID {
	return c.endpointID
}

// Metadata returns the static cluster description.
func (c *ClusterBase) Metadata() *ClusterMetadata {
	return c.meta
}

// ClusterRevision returns the cluster revision.
func (c *ClusterBase) ClusterRevision() uint16 {
	return c.meta.Revision
}

// FeatureMap returns the feature map.
func (c *ClusterBase) FeatureMap() uint32 {
	return c.meta.FeatureMap
}

// Dataver returns the version owner, for binding attribute cells.
func (c *ClusterBase) Dataver() *Dataver {
	return c.dataver
}

// DataVersion returns the current data version.
func (c *ClusterBase) DataVersion() DataVersion {
	return c.dataver.Get()
}

// ConsumeChange returns whether any attribute changed since the last call.
func (c *ClusterBase) ConsumeChange() bool {
	return c.dataver.ConsumeChange()
}

// Path returns the concrete cluster path for this cluster.
func (c *ClusterBase) Path() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: c.endpointID, Cluster: c.meta.ID}
}

// AttributePath returns a concrete attribute path on this cluster.
func (c *ClusterBase) AttributePath(attrID AttributeID) ConcreteAttributePath {
	return ConcreteAttributePath{Endpoint: c.endpointID, Cluster: c.meta.ID, Attribute: attrID}
}

// CommandPath returns a concrete command path on this cluster.
func (c *ClusterBase) CommandPath(cmdID CommandID) ConcreteCommandPath {
	return ConcreteCommandPath{Endpoint: c.endpointID, Cluster: c.meta.ID, Command: cmdID}
}

// Read serves one attribute read. Global attributes are answered from the
// metadata, declared attributes by read, and anything else fails with
// ErrUnsupportedAttribute before the version filter is consulted.
func (c *ClusterBase) Read(req ReadAttributeRequest, enc *AttrDataEncoder, read AttributeReadFunc) error {
	id := req.Path.Attribute
	global := IsGlobalAttribute(id)
	if !c.meta.HasAttribute(id) {
		return fmt.Errorf("%w: 0x%04X on cluster 0x%04X", ErrUnsupportedAttribute, id, c.meta.ID)
	}

	w, ok := enc.WithDataVersion(c.dataver.Get())
	if !ok {
		return nil
	}

	var err error
	if global {
		_, err = c.meta.ReadGlobal(id, w.TLV(), w.Tag())
	} else {
		err = read(id, w)
	}
	if err != nil {
		return classifyReadError(err)
	}
	return w.Complete()
}

// Write serves one attribute write. The DataVersion precondition is
// checked here without the cluster lock to reject stale writes early;
// write funcs that store a value repeat it with CheckDataVersion under
// the lock that guards their cells.
func (c *ClusterBase) Write(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader, write AttributeWriteFunc) error {
	id := req.Path.Attribute
	if !c.meta.HasAttribute(id) {
		return ErrUnsupportedAttribute
	}
	entry, ok := c.meta.Attribute(id)
	if !ok || !entry.IsWritable() {
		return ErrUnsupportedWrite
	}
	if err := c.CheckDataVersion(req); err != nil {
		return err
	}
	if err := write(ctx, req, r); err != nil {
		if errors.Is(err, ErrUnsupportedAttribute) {
			return fmt.Errorf("%w: writable attribute 0x%04X has no handler", ErrInternalInconsistency, id)
		}
		return err
	}
	return nil
}

// CheckDataVersion fails with ErrInvalidDataVersion when req names a data
// version other than the current one.
func (c *ClusterBase) CheckDataVersion(req WriteAttributeRequest) error {
	if req.DataVersion != nil && *req.DataVersion != c.dataver.Get() {
		return ErrInvalidDataVersion
	}
	return nil
}

// Invoke serves one command. Commands outside the accepted list fail with
// ErrUnsupportedCommand without reaching handle. A typed response must be
// one of the generated commands.
func (c *ClusterBase) Invoke(ctx context.Context, req InvokeRequest, r *tlv.Reader, handle CommandFunc) ([]byte, error) {
	id := req.Path.Command
	if !c.meta.AcceptsCommand(id) {
		return nil, fmt.Errorf("%w: 0x%02X on cluster 0x%04X", ErrUnsupportedCommand, id, c.meta.ID)
	}

	resp, err := handle(ctx, req, r)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCommand) {
			return nil, fmt.Errorf("%w: accepted command 0x%02X has no handler", ErrInternalInconsistency, id)
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	if !c.meta.GeneratesCommand(resp.ResponseCommandID()) {
		return nil, fmt.Errorf("%w: response 0x%02X not in generated command list", ErrInternalInconsistency, resp.ResponseCommandID())
	}

	var buf bytes.Buffer
	if err := resp.MarshalTLV(tlv.NewWriter(&buf)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}
	return buf.Bytes(), nil
}

// classifyReadError maps read errors for an ID that already passed the
// metadata check. A handler reporting the ID as unsupported means metadata
// and code disagree; bare codec errors become encoding failures.
func classifyReadError(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedAttribute):
		return fmt.Errorf("%w: declared attribute has no value", ErrInternalInconsistency)
	case isDataModelError(err):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}
}

func isDataModelError(err error) bool {
	for _, target := range []error{
		ErrInternalInconsistency,
		ErrEncodingFailure,
		ErrConstraintError,
		ErrInvalidCommand,
		ErrInvalidInState,
		ErrUnsupportedWrite,
		ErrInvalidDataVersion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
