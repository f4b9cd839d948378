// Package onoff implements the On/Off Cluster (0x0006).
//
// The appliance uses it for simple switched loads such as the oven cavity
// lamp. Only the base feature set is served: the OnOff attribute and the
// Off, On and Toggle commands. OnOff is non-volatile.
package onoff

import (
	"context"
	"sync"

	"github.com/pion/logging"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0x0006
	ClusterRevision                     = 6
)

// Attribute IDs.
const (
	AttrOnOff datamodel.AttributeID = 0x0000
)

// Command IDs.
const (
	CmdOff    datamodel.CommandID = 0x00
	CmdOn     datamodel.CommandID = 0x01
	CmdToggle datamodel.CommandID = 0x02
)

// Metadata describes the cluster type.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrOnOff, datamodel.AttrQualityNonVolatile, datamodel.PrivilegeView),
	},
	AcceptedCommands: []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdOff, 0, datamodel.PrivilegeOperate),
		datamodel.NewCommandEntry(CmdOn, 0, datamodel.PrivilegeOperate),
		datamodel.NewCommandEntry(CmdToggle, 0, datamodel.PrivilegeOperate),
	},
}

// StartUpOnOff selects the OnOff value applied at startup.
type StartUpOnOff uint8

const (
	// StartUpOnOffOff sets OnOff to false on startup.
	StartUpOnOffOff StartUpOnOff = 0

	// StartUpOnOffOn sets OnOff to true on startup.
	StartUpOnOffOn StartUpOnOff = 1

	// StartUpOnOffToggle toggles the previous value on startup.
	StartUpOnOffToggle StartUpOnOff = 2

	// StartUpOnOffPrevious restores the previous value on startup.
	StartUpOnOffPrevious StartUpOnOff = 0xFF
)

// String returns the name of the startup behavior.
func (s StartUpOnOff) String() string {
	switch s {
	case StartUpOnOffOff:
		return "Off"
	case StartUpOnOffOn:
		return "On"
	case StartUpOnOffToggle:
		return "Toggle"
	case StartUpOnOffPrevious:
		return "Previous"
	default:
		return "Unknown"
	}
}

// StateChangeCallback is called when the on/off state changes.
type StateChangeCallback func(endpoint datamodel.EndpointID, newState bool)

// Config provides dependencies for the On/Off cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// Storage for persisting state (optional).
	// If nil, state is not persisted.
	Storage clusters.Storage

	// OnStateChange callback when state changes (optional).
	OnStateChange StateChangeCallback

	// InitialOnOff is the initial on/off state if no persisted value exists.
	InitialOnOff bool

	// StartUpOnOff is applied to the persisted value. Previous when nil.
	StartUpOnOff *StartUpOnOff

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Cluster implements the On/Off cluster (0x0006).
type Cluster struct {
	*datamodel.ClusterBase
	config Config
	log    logging.LeveledLogger

	mu    sync.RWMutex
	onOff datamodel.Cell[bool]
}

// New creates a new On/Off cluster.
func New(cfg Config) *Cluster {
	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(&Metadata, cfg.EndpointID, dv)

	c := &Cluster{
		ClusterBase: base,
		config:      cfg,
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("onoff")
	}
	c.onOff = datamodel.NewCell(base.Dataver(), c.startUpValue())
	return c
}

// startUpValue derives the initial OnOff from storage and StartUpOnOff.
func (c *Cluster) startUpValue() bool {
	previous := c.config.InitialOnOff
	if v, ok := clusters.LoadAttribute(c.config.Storage, c.AttributePath(AttrOnOff)); ok {
		if b, ok := v.(bool); ok {
			previous = b
		}
	}

	if c.config.StartUpOnOff == nil {
		return previous
	}
	switch *c.config.StartUpOnOff {
	case StartUpOnOffOff:
		return false
	case StartUpOnOffOn:
		return true
	case StartUpOnOffToggle:
		return !previous
	default:
		return previous
	}
}

// GetOnOff returns the current on/off state.
func (c *Cluster) GetOnOff() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onOff.Get()
}

// SetOnOff sets the on/off state and reports whether it changed.
// The callback runs after the state is stored.
func (c *Cluster) SetOnOff(newState bool) bool {
	return c.update(func(bool) bool { return newState })
}

// Toggle inverts the on/off state.
func (c *Cluster) Toggle() {
	c.update(func(v bool) bool { return !v })
}

func (c *Cluster) update(next func(bool) bool) bool {
	c.mu.Lock()
	newState := next(c.onOff.Get())
	changed := c.onOff.Set(newState)
	c.mu.Unlock()

	if !changed {
		return false
	}
	err := clusters.StoreAttribute(c.config.Storage, c.AttributePath(AttrOnOff), func(w *tlv.Writer, tag tlv.Tag) error {
		return w.PutBool(tag, newState)
	})
	if err != nil && c.log != nil {
		c.log.Warnf("persist OnOff: %v", err)
	}
	if c.config.OnStateChange != nil {
		c.config.OnStateChange(c.EndpointID(), newState)
	}
	return true
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrOnOff:
		return w.PutBool(c.onOff.Get())
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster. OnOff changes only via commands.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	return c.Write(ctx, req, r, func(context.Context, datamodel.WriteAttributeRequest, *tlv.Reader) error {
		return datamodel.ErrUnsupportedWrite
	})
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, c.invoke)
}

func (c *Cluster) invoke(_ context.Context, req datamodel.InvokeRequest, _ *tlv.Reader) (datamodel.CommandResponse, error) {
	switch req.Path.Command {
	case CmdOff:
		c.SetOnOff(false)
	case CmdOn:
		c.SetOnOff(true)
	case CmdToggle:
		c.Toggle()
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
	return nil, nil
}

var _ datamodel.Cluster = (*Cluster)(nil)
