package datamodel

import (
	"slices"
	"sync"
)

// BasicEndpoint is an in-memory Endpoint. Clusters are kept in
// registration order.
type BasicEndpoint struct {
	mu          sync.RWMutex
	entry       EndpointEntry
	clusters    []Cluster
	deviceTypes []DeviceTypeEntry
}

// NewEndpoint creates an endpoint with Tree composition.
func NewEndpoint(id EndpointID) *BasicEndpoint {
	return &BasicEndpoint{
		entry: EndpointEntry{ID: id, CompositionPattern: CompositionTree},
	}
}

// NewEndpointWithParent creates a child endpoint.
func NewEndpointWithParent(id, parentID EndpointID) *BasicEndpoint {
	ep := NewEndpoint(id)
	ep.entry.ParentID = &parentID
	return ep
}

func (e *BasicEndpoint) ID() EndpointID {
	return e.entry.ID
}

func (e *BasicEndpoint) Entry() EndpointEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entry
}

// SetCompositionPattern sets how the endpoint's PartsList is composed.
func (e *BasicEndpoint) SetCompositionPattern(c EndpointComposition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry.CompositionPattern = c
}

// AddCluster registers a cluster. The cluster must report this endpoint's
// ID and must not duplicate an existing cluster ID.
func (e *BasicEndpoint) AddCluster(c Cluster) error {
	if c.EndpointID() != e.entry.ID {
		return ErrInternalInconsistency
	}
	if err := c.Metadata().Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.ContainsFunc(e.clusters, func(x Cluster) bool { return x.ID() == c.ID() }) {
		return ErrClusterExists
	}
	e.clusters = append(e.clusters, c)
	return nil
}

func (e *BasicEndpoint) GetCluster(id ClusterID) Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.clusters {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

func (e *BasicEndpoint) GetClusters() []Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.clusters)
}

// AddDeviceType adds a device type to the endpoint.
func (e *BasicEndpoint) AddDeviceType(dt DeviceTypeEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceTypes = append(e.deviceTypes, dt)
}

func (e *BasicEndpoint) GetDeviceTypes() []DeviceTypeEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.deviceTypes)
}

var _ Endpoint = (*BasicEndpoint)(nil)
