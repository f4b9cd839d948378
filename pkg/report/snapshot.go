// Package report turns cluster change notifications into attribute
// snapshots and hands them to publishers.
//
// A Reporter polls every cluster of a node. A cluster whose change notifier
// was raised is re-read through the data version filter using the version
// of the last published snapshot, so an unchanged cluster produces nothing.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backkem/matter-appliances/pkg/datamodel"
)

// Snapshot is the state of one cluster instance at a data version.
// Attribute values are the plain Go values produced by tlv.Decode.
type Snapshot struct {
	NodeID      string                        `json:"node" cbor:"1,keyasint"`
	Endpoint    datamodel.EndpointID          `json:"endpoint" cbor:"2,keyasint"`
	Cluster     datamodel.ClusterID           `json:"cluster" cbor:"3,keyasint"`
	DataVersion datamodel.DataVersion         `json:"dataVersion" cbor:"4,keyasint"`
	Attributes  map[datamodel.AttributeID]any `json:"attributes" cbor:"5,keyasint"`
	Timestamp   time.Time                     `json:"timestamp" cbor:"6,keyasint"`
}

// Path returns the cluster path of the snapshot.
func (s *Snapshot) Path() datamodel.ConcreteClusterPath {
	return datamodel.ConcreteClusterPath{Endpoint: s.Endpoint, Cluster: s.Cluster}
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("ep=%d cluster=0x%04X v=%d attrs=%d", s.Endpoint, uint32(s.Cluster), s.DataVersion, len(s.Attributes))
}

// Publisher receives snapshots.
type Publisher interface {
	Publish(ctx context.Context, s *Snapshot) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, s *Snapshot) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, s *Snapshot) error {
	return f(ctx, s)
}

// MultiPublisher fans a snapshot out to every publisher. All publishers
// are called; their errors are joined.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, s *Snapshot) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
