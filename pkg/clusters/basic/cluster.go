// Package basic implements the Basic Information Cluster (0x0028).
//
// The Basic Information cluster describes the node as a whole: vendor,
// product, versions and the user-assigned NodeLabel and Location. It lives
// on the root endpoint. NodeLabel, Location and LocalConfigDisabled are
// non-volatile.
package basic

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/logging"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0x0028
	ClusterRevision                     = 5
)

// Attribute IDs.
const (
	AttrDataModelRevision    datamodel.AttributeID = 0x0000
	AttrVendorName           datamodel.AttributeID = 0x0001
	AttrVendorID             datamodel.AttributeID = 0x0002
	AttrProductName          datamodel.AttributeID = 0x0003
	AttrProductID            datamodel.AttributeID = 0x0004
	AttrNodeLabel            datamodel.AttributeID = 0x0005
	AttrLocation             datamodel.AttributeID = 0x0006
	AttrHardwareVersion      datamodel.AttributeID = 0x0007
	AttrHardwareVersionStr   datamodel.AttributeID = 0x0008
	AttrSoftwareVersion      datamodel.AttributeID = 0x0009
	AttrSoftwareVersionStr   datamodel.AttributeID = 0x000A
	AttrSerialNumber         datamodel.AttributeID = 0x000F
	AttrLocalConfigDisabled  datamodel.AttributeID = 0x0010
	AttrUniqueID             datamodel.AttributeID = 0x0012
	AttrCapabilityMinima     datamodel.AttributeID = 0x0013
	AttrSpecificationVersion datamodel.AttributeID = 0x0015
	AttrMaxPathsPerInvoke    datamodel.AttributeID = 0x0016
	AttrConfigurationVersion datamodel.AttributeID = 0x0018
)

// Length limits of the string attributes.
const (
	MaxNodeLabelLength = 32
	LocationLength     = 2
)

// Metadata describes the cluster type.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrDataModelRevision, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrVendorName, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrVendorID, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrProductName, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrProductID, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadWriteAttribute(AttrNodeLabel, datamodel.AttrQualityNonVolatile, datamodel.PrivilegeView, datamodel.PrivilegeManage),
		datamodel.NewReadWriteAttribute(AttrLocation, datamodel.AttrQualityNonVolatile, datamodel.PrivilegeView, datamodel.PrivilegeAdminister),
		datamodel.NewReadOnlyAttribute(AttrHardwareVersion, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrHardwareVersionStr, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSoftwareVersion, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSoftwareVersionStr, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSerialNumber, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadWriteAttribute(AttrLocalConfigDisabled, datamodel.AttrQualityNonVolatile, datamodel.PrivilegeView, datamodel.PrivilegeManage),
		datamodel.NewReadOnlyAttribute(AttrUniqueID, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrCapabilityMinima, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSpecificationVersion, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrMaxPathsPerInvoke, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrConfigurationVersion, datamodel.AttrQualityNonVolatile, datamodel.PrivilegeView),
	},
}

// CapabilityMinima are the guaranteed session and subscription counts.
type CapabilityMinima struct {
	CaseSessionsPerFabric  uint16
	SubscriptionsPerFabric uint16
}

// DeviceInfo is the static identity of the node.
type DeviceInfo struct {
	DataModelRevision     uint16
	VendorName            string
	VendorID              uint16
	ProductName           string
	ProductID             uint16
	HardwareVersion       uint16
	HardwareVersionString string
	SoftwareVersion       uint32
	SoftwareVersionString string
	SerialNumber          string
	UniqueID              string
	CapabilityMinima      CapabilityMinima
	SpecificationVersion  uint32
	MaxPathsPerInvoke     uint16
}

// DefaultDeviceInfo returns test vendor values.
func DefaultDeviceInfo() DeviceInfo {
	return DeviceInfo{
		DataModelRevision:     18,
		VendorName:            "TEST_VENDOR",
		VendorID:              0xFFF1,
		ProductName:           "Appliance",
		ProductID:             0x8001,
		HardwareVersionString: "0",
		SoftwareVersion:       1,
		SoftwareVersionString: "1.0",
		CapabilityMinima:      CapabilityMinima{CaseSessionsPerFabric: 3, SubscriptionsPerFabric: 3},
		SpecificationVersion:  0x01040000,
		MaxPathsPerInvoke:     1,
	}
}

// Config provides dependencies for the Basic Information cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to (should be 0).
	EndpointID datamodel.EndpointID

	// DeviceInfo provides static device information.
	DeviceInfo DeviceInfo

	// Storage for persisting mutable attributes (optional).
	Storage clusters.Storage

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Cluster implements the Basic Information cluster (0x0028).
type Cluster struct {
	*datamodel.ClusterBase
	config Config
	log    logging.LeveledLogger

	mu                   sync.RWMutex
	nodeLabel            datamodel.Cell[string]
	location             datamodel.Cell[string]
	localConfigDisabled  datamodel.Cell[bool]
	configurationVersion datamodel.Cell[uint32]
}

// New creates a new Basic Information cluster and restores the persisted
// attributes.
func New(cfg Config) *Cluster {
	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(&Metadata, cfg.EndpointID, dv)

	label, location, disabled, version := "", "XX", false, uint32(1)
	if v, ok := clusters.LoadAttribute(cfg.Storage, base.AttributePath(AttrNodeLabel)); ok {
		if s, ok := v.(string); ok && len(s) <= MaxNodeLabelLength {
			label = s
		}
	}
	if v, ok := clusters.LoadAttribute(cfg.Storage, base.AttributePath(AttrLocation)); ok {
		if s, ok := v.(string); ok && len(s) == LocationLength {
			location = s
		}
	}
	if v, ok := clusters.LoadAttribute(cfg.Storage, base.AttributePath(AttrLocalConfigDisabled)); ok {
		disabled, _ = v.(bool)
	}
	if v, ok := clusters.LoadAttribute(cfg.Storage, base.AttributePath(AttrConfigurationVersion)); ok {
		if n, ok := v.(uint64); ok && n > 0 && n <= 0xFFFFFFFF {
			version = uint32(n)
		}
	}

	d := base.Dataver()
	c := &Cluster{
		ClusterBase:          base,
		config:               cfg,
		nodeLabel:            datamodel.NewCell(d, label),
		location:             datamodel.NewCell(d, location),
		localConfigDisabled:  datamodel.NewCell(d, disabled),
		configurationVersion: datamodel.NewCell(d, version),
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("basic")
	}
	return c
}

// DeviceInfo returns the static identity.
func (c *Cluster) DeviceInfo() DeviceInfo {
	return c.config.DeviceInfo
}

// NodeLabel returns the user-assigned node label.
func (c *Cluster) NodeLabel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodeLabel.Get()
}

// SetNodeLabel sets and persists the node label.
func (c *Cluster) SetNodeLabel(label string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setNodeLabel(label)
}

func (c *Cluster) setNodeLabel(label string) (bool, error) {
	if len(label) > MaxNodeLabelLength {
		return false, fmt.Errorf("%w: node label longer than %d", datamodel.ErrConstraintError, MaxNodeLabelLength)
	}
	if !c.nodeLabel.Set(label) {
		return false, nil
	}
	return true, c.persist(AttrNodeLabel, func(w *tlv.Writer, tag tlv.Tag) error { return w.PutString(tag, label) })
}

// Location returns the ISO 3166-1 alpha-2 country code, "XX" if unknown.
func (c *Cluster) Location() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location.Get()
}

// SetLocation sets and persists the location.
func (c *Cluster) SetLocation(location string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocation(location)
}

func (c *Cluster) setLocation(location string) (bool, error) {
	if len(location) != LocationLength {
		return false, fmt.Errorf("%w: location must be %d characters", datamodel.ErrConstraintError, LocationLength)
	}
	if !c.location.Set(location) {
		return false, nil
	}
	return true, c.persist(AttrLocation, func(w *tlv.Writer, tag tlv.Tag) error { return w.PutString(tag, location) })
}

// LocalConfigDisabled reports whether on-device configuration is disabled.
func (c *Cluster) LocalConfigDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.localConfigDisabled.Get()
}

// SetLocalConfigDisabled sets and persists LocalConfigDisabled.
func (c *Cluster) SetLocalConfigDisabled(disabled bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocalConfigDisabled(disabled)
}

func (c *Cluster) setLocalConfigDisabled(disabled bool) (bool, error) {
	if !c.localConfigDisabled.Set(disabled) {
		return false, nil
	}
	return true, c.persist(AttrLocalConfigDisabled, func(w *tlv.Writer, tag tlv.Tag) error { return w.PutBool(tag, disabled) })
}

// ConfigurationVersion returns the configuration version.
func (c *Cluster) ConfigurationVersion() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.configurationVersion.Get()
}

// IncrementConfigurationVersion records a change of the node composition.
func (c *Cluster) IncrementConfigurationVersion() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.configurationVersion.Get() + 1
	c.configurationVersion.Set(v)
	return v, c.persist(AttrConfigurationVersion, func(w *tlv.Writer, tag tlv.Tag) error { return w.PutUint(tag, uint64(v)) })
}

func (c *Cluster) persist(id datamodel.AttributeID, put func(w *tlv.Writer, tag tlv.Tag) error) error {
	err := clusters.StoreAttribute(c.config.Storage, c.AttributePath(id), put)
	if err != nil && c.log != nil {
		c.log.Warnf("persist attribute 0x%04X: %v", id, err)
	}
	return err
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	info := &c.config.DeviceInfo
	switch id {
	case AttrDataModelRevision:
		return w.PutUint(uint64(info.DataModelRevision))
	case AttrVendorName:
		return w.PutString(info.VendorName)
	case AttrVendorID:
		return w.PutUint(uint64(info.VendorID))
	case AttrProductName:
		return w.PutString(info.ProductName)
	case AttrProductID:
		return w.PutUint(uint64(info.ProductID))
	case AttrNodeLabel:
		return w.PutString(c.nodeLabel.Get())
	case AttrLocation:
		return w.PutString(c.location.Get())
	case AttrHardwareVersion:
		return w.PutUint(uint64(info.HardwareVersion))
	case AttrHardwareVersionStr:
		return w.PutString(info.HardwareVersionString)
	case AttrSoftwareVersion:
		return w.PutUint(uint64(info.SoftwareVersion))
	case AttrSoftwareVersionStr:
		return w.PutString(info.SoftwareVersionString)
	case AttrSerialNumber:
		return w.PutString(info.SerialNumber)
	case AttrLocalConfigDisabled:
		return w.PutBool(c.localConfigDisabled.Get())
	case AttrUniqueID:
		return w.PutString(info.UniqueID)
	case AttrCapabilityMinima:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return clusters.PutStruct(tw, tag, func(tw *tlv.Writer) error {
				if err := tw.PutUint(tlv.ContextTag(0), uint64(info.CapabilityMinima.CaseSessionsPerFabric)); err != nil {
					return err
				}
				return tw.PutUint(tlv.ContextTag(1), uint64(info.CapabilityMinima.SubscriptionsPerFabric))
			})
		})
	case AttrSpecificationVersion:
		return w.PutUint(uint64(info.SpecificationVersion))
	case AttrMaxPathsPerInvoke:
		return w.PutUint(uint64(info.MaxPathsPerInvoke))
	case AttrConfigurationVersion:
		return w.PutUint(uint64(c.configurationVersion.Get()))
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	return c.Write(ctx, req, r, c.writeAttribute)
}

func (c *Cluster) writeAttribute(_ context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	if err := r.Next(); err != nil {
		return err
	}

	var (
		str     string
		boolean bool
		err     error
	)
	switch req.Path.Attribute {
	case AttrNodeLabel, AttrLocation:
		str, err = r.String()
	case AttrLocalConfigDisabled:
		boolean, err = r.Bool()
	default:
		return datamodel.ErrUnsupportedAttribute
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.CheckDataVersion(req); err != nil {
		return err
	}
	switch req.Path.Attribute {
	case AttrNodeLabel:
		_, err = c.setNodeLabel(str)
	case AttrLocation:
		_, err = c.setLocation(str)
	default:
		_, err = c.setLocalConfigDisabled(boolean)
	}
	return err
}

// InvokeCommand implements datamodel.Cluster. The cluster has no commands.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, func(context.Context, datamodel.InvokeRequest, *tlv.Reader) (datamodel.CommandResponse, error) {
		return nil, datamodel.ErrUnsupportedCommand
	})
}

var _ datamodel.Cluster = (*Cluster)(nil)
