package datamodel

import (
	"context"

	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Node is the top of the element hierarchy (Spec 7.8).
type Node interface {
	// GetEndpoint returns the endpoint with the specified ID, or nil.
	GetEndpoint(id EndpointID) Endpoint

	// GetEndpoints returns all endpoints in registration order.
	GetEndpoints() []Endpoint
}

// Endpoint is an instance of a device type holding clusters (Spec 7.9).
type Endpoint interface {
	ID() EndpointID
	Entry() EndpointEntry

	// GetCluster returns the server cluster with the specified ID, or nil.
	GetCluster(id ClusterID) Cluster

	// GetClusters returns all server clusters in registration order.
	GetClusters() []Cluster

	GetDeviceTypes() []DeviceTypeEntry
}

// Cluster is a server-side cluster instance (Spec 7.10).
//
// The dispatch surfaces are total: every attribute ID yields either an
// encoded value, a version-filtered skip, or an error; every command ID
// either runs a handler or fails with ErrUnsupportedCommand.
type Cluster interface {
	ID() ClusterID
	EndpointID() EndpointID

	// Metadata returns the static description shared by all instances
	// of the cluster type.
	Metadata() *ClusterMetadata

	// DataVersion returns the current data version (Spec 7.10.3).
	DataVersion() DataVersion

	// ConsumeChange reports whether any attribute changed since the last
	// call and clears the pending change.
	ConsumeChange() bool

	// ReadAttribute encodes one attribute through enc. When the request
	// carries the current data version nothing is emitted and nil is
	// returned.
	ReadAttribute(ctx context.Context, req ReadAttributeRequest, enc *AttrDataEncoder) error

	// WriteAttribute decodes and applies one attribute write.
	WriteAttribute(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader) error

	// InvokeCommand executes a command. The returned bytes are the TLV
	// encoded response fields, or nil for a status-only response.
	InvokeCommand(ctx context.Context, req InvokeRequest, r *tlv.Reader) ([]byte, error)
}
