package datamodel

import (
	"slices"
	"sync"
)

// BasicNode is an in-memory Node. Endpoints are kept in registration order.
type BasicNode struct {
	mu        sync.RWMutex
	endpoints []Endpoint
}

// NewNode creates a new empty node.
func NewNode() *BasicNode {
	return &BasicNode{}
}

// AddEndpoint registers an endpoint.
// Returns ErrEndpointExists if an endpoint with the same ID already exists.
func (n *BasicNode) AddEndpoint(ep Endpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if slices.ContainsFunc(n.endpoints, func(x Endpoint) bool { return x.ID() == ep.ID() }) {
		return ErrEndpointExists
	}
	n.endpoints = append(n.endpoints, ep)
	return nil
}

func (n *BasicNode) GetEndpoint(id EndpointID) Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ep := range n.endpoints {
		if ep.ID() == id {
			return ep
		}
	}
	return nil
}

func (n *BasicNode) GetEndpoints() []Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.endpoints)
}

// Clusters returns every cluster instance on the node, endpoint by endpoint.
func Clusters(n Node) []Cluster {
	var out []Cluster
	for _, ep := range n.GetEndpoints() {
		out = append(out, ep.GetClusters()...)
	}
	return out
}

// LookupCluster resolves a cluster path on n.
func LookupCluster(n Node, p ConcreteClusterPath) (Cluster, error) {
	ep := n.GetEndpoint(p.Endpoint)
	if ep == nil {
		return nil, ErrEndpointNotFound
	}
	c := ep.GetCluster(p.Cluster)
	if c == nil {
		return nil, ErrClusterNotFound
	}
	return c, nil
}

var _ Node = (*BasicNode)(nil)
