// Package descriptor implements the Descriptor Cluster (0x001D).
//
// The Descriptor cluster describes an endpoint's device types, server and
// client clusters, and composition (PartsList). Every endpoint carries one.
// The lists are derived from the node; call Refresh after the node
// composition changes.
package descriptor

import (
	"context"
	"slices"
	"sync"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0x001D
	ClusterRevision                     = 3
)

// Attribute IDs.
const (
	AttrDeviceTypeList datamodel.AttributeID = 0x0000
	AttrServerList     datamodel.AttributeID = 0x0001
	AttrClientList     datamodel.AttributeID = 0x0002
	AttrPartsList      datamodel.AttributeID = 0x0003
	AttrTagList        datamodel.AttributeID = 0x0004
)

// Feature bits.
const (
	// FeatureTagList indicates the TagList attribute is present.
	FeatureTagList uint32 = 1 << 0
)

var listAttributes = []datamodel.AttributeEntry{
	datamodel.NewReadOnlyAttribute(AttrDeviceTypeList, datamodel.AttrQualityList, datamodel.PrivilegeView),
	datamodel.NewReadOnlyAttribute(AttrServerList, datamodel.AttrQualityList, datamodel.PrivilegeView),
	datamodel.NewReadOnlyAttribute(AttrClientList, datamodel.AttrQualityList, datamodel.PrivilegeView),
	datamodel.NewReadOnlyAttribute(AttrPartsList, datamodel.AttrQualityList, datamodel.PrivilegeView),
}

// Metadata describes the cluster type without TagList.
var Metadata = datamodel.ClusterMetadata{
	ID:         ClusterID,
	Revision:   ClusterRevision,
	Attributes: listAttributes,
}

// MetadataWithTagList describes the cluster type with the TAGLIST feature.
var MetadataWithTagList = datamodel.ClusterMetadata{
	ID:         ClusterID,
	Revision:   ClusterRevision,
	FeatureMap: FeatureTagList,
	Attributes: append(slices.Clone(listAttributes),
		datamodel.NewReadOnlyAttribute(AttrTagList, datamodel.AttrQualityList|datamodel.AttrQualityFixed, datamodel.PrivilegeView)),
}

// SemanticTag disambiguates endpoints of the same device type.
type SemanticTag struct {
	// MfgCode is nil for standard namespaces.
	MfgCode     *uint16
	NamespaceID uint8
	Tag         uint8
	// Label is optional.
	Label *string
}

func (t SemanticTag) encode(w *tlv.Writer, tag tlv.Tag) error {
	return clusters.PutStruct(w, tag, func(w *tlv.Writer) error {
		var err error
		if t.MfgCode != nil {
			err = w.PutUint(tlv.ContextTag(0), uint64(*t.MfgCode))
		} else {
			err = w.PutNull(tlv.ContextTag(0))
		}
		if err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(1), uint64(t.NamespaceID)); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(2), uint64(t.Tag)); err != nil {
			return err
		}
		if t.Label != nil {
			return w.PutString(tlv.ContextTag(3), *t.Label)
		}
		return nil
	})
}

// Config provides dependencies for the Descriptor cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// Node is queried for the endpoint composition.
	Node datamodel.Node

	// TagList enables the TAGLIST feature when non-empty.
	TagList []SemanticTag

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion
}

// Cluster implements the Descriptor cluster (0x001D).
type Cluster struct {
	*datamodel.ClusterBase
	node    datamodel.Node
	tagList []SemanticTag

	mu          sync.RWMutex
	deviceTypes datamodel.ListCell[datamodel.DeviceTypeEntry]
	serverList  datamodel.ListCell[datamodel.ClusterID]
	clientList  datamodel.ListCell[datamodel.ClusterID]
	partsList   datamodel.ListCell[datamodel.EndpointID]
}

// New creates a Descriptor cluster. The lists are computed from the node as
// it is now; clusters added later appear after Refresh.
func New(cfg Config) *Cluster {
	meta := &Metadata
	if len(cfg.TagList) > 0 {
		meta = &MetadataWithTagList
	}
	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(meta, cfg.EndpointID, dv)

	c := &Cluster{
		ClusterBase: base,
		node:        cfg.Node,
		tagList:     slices.Clone(cfg.TagList),
	}
	deviceTypes, servers, parts := c.compose()
	d := base.Dataver()
	c.deviceTypes = datamodel.NewComparableListCell(d, deviceTypes)
	c.serverList = datamodel.NewComparableListCell(d, servers)
	c.clientList = datamodel.NewComparableListCell[datamodel.ClusterID](d, nil)
	c.partsList = datamodel.NewComparableListCell(d, parts)
	return c
}

// Refresh recomputes the lists from the node. Reports whether any list
// changed.
func (c *Cluster) Refresh() bool {
	deviceTypes, servers, parts := c.compose()

	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.deviceTypes.Set(deviceTypes)
	changed = c.serverList.Set(servers) || changed
	changed = c.partsList.Set(parts) || changed
	return changed
}

func (c *Cluster) compose() ([]datamodel.DeviceTypeEntry, []datamodel.ClusterID, []datamodel.EndpointID) {
	if c.node == nil {
		return nil, nil, nil
	}
	var deviceTypes []datamodel.DeviceTypeEntry
	var servers []datamodel.ClusterID
	if ep := c.node.GetEndpoint(c.EndpointID()); ep != nil {
		deviceTypes = ep.GetDeviceTypes()
		for _, cl := range ep.GetClusters() {
			servers = append(servers, cl.ID())
		}
	}
	return deviceTypes, servers, PartsList(c.node, c.EndpointID())
}

// PartsList returns the endpoints composed under id. The root endpoint
// lists every other endpoint. A Tree endpoint lists its direct children,
// a FullFamily endpoint all of its descendants.
func PartsList(n datamodel.Node, id datamodel.EndpointID) []datamodel.EndpointID {
	endpoints := n.GetEndpoints()
	var parts []datamodel.EndpointID
	if id == 0 {
		for _, ep := range endpoints {
			if ep.ID() != 0 {
				parts = append(parts, ep.ID())
			}
		}
		return parts
	}

	self := n.GetEndpoint(id)
	if self == nil {
		return nil
	}
	fullFamily := self.Entry().CompositionPattern == datamodel.CompositionFullFamily
	for _, ep := range endpoints {
		if ep.ID() == id {
			continue
		}
		if fullFamily {
			if isDescendant(n, ep, id) {
				parts = append(parts, ep.ID())
			}
		} else if p := ep.Entry().ParentID; p != nil && *p == id {
			parts = append(parts, ep.ID())
		}
	}
	return parts
}

func isDescendant(n datamodel.Node, ep datamodel.Endpoint, ancestor datamodel.EndpointID) bool {
	seen := map[datamodel.EndpointID]bool{}
	for p := ep.Entry().ParentID; p != nil && !seen[*p]; {
		if *p == ancestor {
			return true
		}
		seen[*p] = true
		parent := n.GetEndpoint(*p)
		if parent == nil {
			return false
		}
		p = parent.Entry().ParentID
	}
	return false
}

// DeviceTypes returns the DeviceTypeList.
func (c *Cluster) DeviceTypes() []datamodel.DeviceTypeEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceTypes.Get()
}

// ServerList returns the server cluster IDs.
func (c *Cluster) ServerList() []datamodel.ClusterID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverList.Get()
}

// PartsList returns the composed endpoint IDs.
func (c *Cluster) PartsList() []datamodel.EndpointID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.partsList.Get()
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrDeviceTypeList:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return putArray(tw, tag, c.deviceTypes.Get(), func(tw *tlv.Writer, dt datamodel.DeviceTypeEntry) error {
				return clusters.PutStruct(tw, tlv.Anonymous(), func(tw *tlv.Writer) error {
					if err := tw.PutUint(tlv.ContextTag(0), uint64(dt.DeviceTypeID)); err != nil {
						return err
					}
					return tw.PutUint(tlv.ContextTag(1), uint64(dt.Revision))
				})
			})
		})
	case AttrServerList:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return putArray(tw, tag, c.serverList.Get(), func(tw *tlv.Writer, id datamodel.ClusterID) error {
				return tw.PutUint(tlv.Anonymous(), uint64(id))
			})
		})
	case AttrClientList:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return putArray(tw, tag, c.clientList.Get(), func(tw *tlv.Writer, id datamodel.ClusterID) error {
				return tw.PutUint(tlv.Anonymous(), uint64(id))
			})
		})
	case AttrPartsList:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return putArray(tw, tag, c.partsList.Get(), func(tw *tlv.Writer, id datamodel.EndpointID) error {
				return tw.PutUint(tlv.Anonymous(), uint64(id))
			})
		})
	case AttrTagList:
		if len(c.tagList) == 0 {
			return datamodel.ErrUnsupportedAttribute
		}
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return putArray(tw, tag, c.tagList, func(tw *tlv.Writer, t SemanticTag) error {
				return t.encode(tw, tlv.Anonymous())
			})
		})
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

func putArray[T any](w *tlv.Writer, tag tlv.Tag, items []T, put func(w *tlv.Writer, item T) error) error {
	if err := w.StartArray(tag); err != nil {
		return err
	}
	for _, item := range items {
		if err := put(w, item); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

// WriteAttribute implements datamodel.Cluster. Every attribute is read-only.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	return c.Write(ctx, req, r, func(context.Context, datamodel.WriteAttributeRequest, *tlv.Reader) error {
		return datamodel.ErrUnsupportedWrite
	})
}

// InvokeCommand implements datamodel.Cluster. The cluster has no commands.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, func(context.Context, datamodel.InvokeRequest, *tlv.Reader) (datamodel.CommandResponse, error) {
		return nil, datamodel.ErrUnsupportedCommand
	})
}

var _ datamodel.Cluster = (*Cluster)(nil)
