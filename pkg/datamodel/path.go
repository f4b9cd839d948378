package datamodel

// Fundamental ID types of the data model.
type (
	// NodeID is a 64-bit node identifier.
	NodeID uint64

	// EndpointID is a 16-bit endpoint identifier.
	EndpointID uint16

	// ClusterID is a 32-bit cluster identifier.
	ClusterID uint32

	// AttributeID is a 32-bit attribute identifier.
	AttributeID uint32

	// CommandID is a 32-bit command identifier.
	CommandID uint32

	// DataVersion is the per-cluster-instance change counter (Spec 7.10.3).
	DataVersion uint32

	// DeviceTypeID is a 32-bit device type identifier.
	DeviceTypeID uint32
)

// ConcreteClusterPath identifies a specific cluster instance on an endpoint.
type ConcreteClusterPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
}

// ConcreteAttributePath identifies a specific attribute within a cluster.
// Spec: Section 8.2.1.1
type ConcreteAttributePath struct {
	Endpoint  EndpointID
	Cluster   ClusterID
	Attribute AttributeID
}

// ClusterPath returns the cluster path portion.
func (p ConcreteAttributePath) ClusterPath() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: p.Endpoint, Cluster: p.Cluster}
}

// ConcreteCommandPath identifies a specific command within a cluster.
// Spec: Section 8.2.1.2
type ConcreteCommandPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
	Command  CommandID
}

// ClusterPath returns the cluster path portion.
func (p ConcreteCommandPath) ClusterPath() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: p.Endpoint, Cluster: p.Cluster}
}
