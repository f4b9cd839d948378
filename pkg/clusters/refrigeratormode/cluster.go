// Package refrigeratormode implements the Refrigerator And Temperature
// Controlled Cabinet Mode Cluster (0x0052).
//
// StartUpMode and OnMode are non-volatile and survive restarts through
// the configured clusters.Storage. CurrentMode is persisted as well so a
// null StartUpMode restores the last mode in use.
package refrigeratormode

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
	ClusterID       = datamodel.ClusterRefrigeratorMode
	ClusterRevision = 1
)

// Attribute IDs.
const (
	AttrSupportedModes datamodel.AttributeID = 0x0000
	AttrCurrentMode    datamodel.AttributeID = 0x0001
	AttrStartUpMode    datamodel.AttributeID = 0x0002
	AttrOnMode         datamodel.AttributeID = 0x0003
)

// Command IDs.
const (
	CmdChangeToMode         datamodel.CommandID = 0x00
	CmdChangeToModeResponse datamodel.CommandID = 0x01
)

// Metadata describes the cluster type.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrSupportedModes, datamodel.AttrQualityFixed|datamodel.AttrQualityList, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrCurrentMode, datamodel.AttrQualityNonVolatile|datamodel.AttrQualityReportable, datamodel.PrivilegeView),
		datamodel.NewReadWriteAttribute(AttrStartUpMode, datamodel.AttrQualityNonVolatile|datamodel.AttrQualityNullable, datamodel.PrivilegeView, datamodel.PrivilegeOperate),
		datamodel.NewReadWriteAttribute(AttrOnMode, datamodel.AttrQualityNonVolatile|datamodel.AttrQualityNullable, datamodel.PrivilegeView, datamodel.PrivilegeOperate),
	},
	AcceptedCommands: []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdChangeToMode, 0, datamodel.PrivilegeOperate),
	},
	GeneratedCommands: []datamodel.CommandID{CmdChangeToModeResponse},
}

// ModeChangeCallback is called after CurrentMode changed.
type ModeChangeCallback func(endpoint datamodel.EndpointID, from, to uint8)

// Config provides dependencies for the Refrigerator Mode cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// SupportedModes defaults to DefaultSupportedModes when empty.
	SupportedModes []ModeOption

	// InitialMode is the CurrentMode used when nothing was persisted.
	InitialMode uint8

	// Storage for non-volatile attributes (optional).
	Storage clusters.Storage

	// OnModeChange callback (optional).
	OnModeChange ModeChangeCallback

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Cluster implements the Refrigerator Mode cluster (0x0052).
type Cluster struct {
	*datamodel.ClusterBase
	config Config
	log    logging.LeveledLogger

	mu             sync.RWMutex
	supportedModes datamodel.ListCell[ModeOption]
	currentMode    datamodel.Cell[uint8]
	startUpMode    datamodel.Cell[datamodel.Nullable[uint8]]
	onMode         datamodel.Cell[datamodel.Nullable[uint8]]
}

// New creates a new Refrigerator Mode cluster and restores persisted
// attributes from Config.Storage.
func New(cfg Config) (*Cluster, error) {
	modes := cfg.SupportedModes
	if len(modes) == 0 {
		modes = DefaultSupportedModes
	}
	if err := validateModes(modes); err != nil {
		return nil, err
	}

	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(&Metadata, cfg.EndpointID, dv)
	d := base.Dataver()

	c := &Cluster{
		ClusterBase:    base,
		config:         cfg,
		supportedModes: datamodel.NewListCell(d, modes, modeOptionEqual),
		currentMode:    datamodel.NewCell(d, cfg.InitialMode),
		startUpMode:    datamodel.NewCell(d, datamodel.Null[uint8]()),
		onMode:         datamodel.NewCell(d, datamodel.Null[uint8]()),
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("refrigerator-mode")
	}
	c.loadPersistedState()
	return c, nil
}

func validateModes(modes []ModeOption) error {
	seen := make(map[uint8]bool, len(modes))
	for _, m := range modes {
		if m.Label == "" {
			return fmt.Errorf("%w: mode %d has no label", datamodel.ErrConstraintError, m.Mode)
		}
		if seen[m.Mode] {
			return fmt.Errorf("%w: duplicate mode %d", datamodel.ErrConstraintError, m.Mode)
		}
		seen[m.Mode] = true
	}
	return nil
}

// loadPersistedState restores StartUpMode, OnMode and CurrentMode without
// touching the data version. A supported StartUpMode wins over the stored
// CurrentMode.
func (c *Cluster) loadPersistedState() {
	s := c.config.Storage
	if s == nil {
		return
	}
	if v, ok := clusters.LoadNullableUint8(s, c.AttributePath(AttrStartUpMode)); ok {
		c.startUpMode = datamodel.NewCell(c.Dataver(), v)
	}
	if v, ok := clusters.LoadNullableUint8(s, c.AttributePath(AttrOnMode)); ok {
		c.onMode = datamodel.NewCell(c.Dataver(), v)
	}
	if v, ok := clusters.LoadNullableUint8(s, c.AttributePath(AttrCurrentMode)); ok && v.Valid && c.isSupported(v.Value) {
		c.currentMode = datamodel.NewCell(c.Dataver(), v.Value)
	}
	if su := c.startUpMode.Get(); su.Valid && c.isSupported(su.Value) {
		c.currentMode = datamodel.NewCell(c.Dataver(), su.Value)
	}
}

func (c *Cluster) persist(id datamodel.AttributeID, v datamodel.Nullable[uint8]) {
	if err := clusters.StoreNullableUint8(c.config.Storage, c.AttributePath(id), v); err != nil && c.log != nil {
		c.log.Warnf("persist attribute 0x%04X: %v", id, err)
	}
}

// isSupported must be called with mu held or before the cluster is shared.
func (c *Cluster) isSupported(mode uint8) bool {
	for _, m := range c.supportedModes.Get() {
		if m.Mode == mode {
			return true
		}
	}
	return false
}

// SupportedModes returns the supported mode options.
func (c *Cluster) SupportedModes() []ModeOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supportedModes.Get()
}

// SetSupportedModes replaces the mode table.
func (c *Cluster) SetSupportedModes(modes []ModeOption) (bool, error) {
	if err := validateModes(modes); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supportedModes.Set(modes), nil
}

// CurrentMode returns the current mode.
func (c *Cluster) CurrentMode() uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentMode.Get()
}

// SetCurrentMode changes the current mode as the device itself would.
func (c *Cluster) SetCurrentMode(mode uint8) (bool, error) {
	c.mu.Lock()
	if !c.isSupported(mode) {
		c.mu.Unlock()
		return false, fmt.Errorf("%w: mode %d", datamodel.ErrConstraintError, mode)
	}
	from := c.currentMode.Get()
	changed := c.currentMode.Set(mode)
	if changed {
		c.persist(AttrCurrentMode, datamodel.NewNullable(mode))
	}
	c.mu.Unlock()

	if changed {
		c.notifyModeChange(from, mode)
	}
	return changed, nil
}

// StartUpMode returns the mode applied at startup, or null.
func (c *Cluster) StartUpMode() datamodel.Nullable[uint8] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startUpMode.Get()
}

// SetStartUpMode sets StartUpMode. Non-null values must be supported.
func (c *Cluster) SetStartUpMode(v datamodel.Nullable[uint8]) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setNullableMode(&c.startUpMode, AttrStartUpMode, v)
}

// OnMode returns the mode applied when the device is switched on, or null.
func (c *Cluster) OnMode() datamodel.Nullable[uint8] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onMode.Get()
}

// SetOnMode sets OnMode. Non-null values must be supported.
func (c *Cluster) SetOnMode(v datamodel.Nullable[uint8]) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setNullableMode(&c.onMode, AttrOnMode, v)
}

func (c *Cluster) setNullableMode(cell *datamodel.Cell[datamodel.Nullable[uint8]], id datamodel.AttributeID, v datamodel.Nullable[uint8]) (bool, error) {
	if v.Valid && !c.isSupported(v.Value) {
		return false, fmt.Errorf("%w: mode %d", datamodel.ErrConstraintError, v.Value)
	}
	if !cell.Set(v) {
		return false, nil
	}
	c.persist(id, v)
	return true, nil
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrSupportedModes:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			if err := tw.StartArray(tag); err != nil {
				return err
			}
			for _, m := range c.supportedModes.Get() {
				if err := m.encode(tw, tlv.Anonymous()); err != nil {
					return err
				}
			}
			return tw.EndContainer()
		})
	case AttrCurrentMode:
		return w.PutUint(uint64(c.currentMode.Get()))
	case AttrStartUpMode:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return datamodel.PutNullableUint(tw, tag, c.startUpMode.Get())
		})
	case AttrOnMode:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return datamodel.PutNullableUint(tw, tag, c.onMode.Get())
		})
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
	v, err := datamodel.ReadNullableUint8(r)
	if err != nil {
		return fmt.Errorf("%w: %w", datamodel.ErrConstraintError, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.CheckDataVersion(req); err != nil {
		return err
	}
	switch req.Path.Attribute {
	case AttrStartUpMode:
		_, err = c.setNullableMode(&c.startUpMode, AttrStartUpMode, v)
	case AttrOnMode:
		_, err = c.setNullableMode(&c.onMode, AttrOnMode, v)
	default:
		return datamodel.ErrUnsupportedAttribute
	}
	return err
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, c.invoke)
}

func (c *Cluster) invoke(_ context.Context, req datamodel.InvokeRequest, r *tlv.Reader) (datamodel.CommandResponse, error) {
	switch req.Path.Command {
	case CmdChangeToMode:
		return c.handleChangeToMode(r)
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
}

func (c *Cluster) handleChangeToMode(r *tlv.Reader) (datamodel.CommandResponse, error) {
	var req ChangeToModeRequest
	if err := clusters.DecodeRequest(r, &req); err != nil {
		return nil, err
	}
	if !req.present {
		return nil, fmt.Errorf("%w: NewMode: %w", datamodel.ErrInvalidCommand, clusters.ErrMissingField)
	}

	c.mu.RLock()
	supported := c.isSupported(req.NewMode)
	c.mu.RUnlock()
	if !supported {
		return &ChangeToModeResponse{
			Status:     StatusUnsupportedMode,
			StatusText: fmt.Sprintf("mode %d is not supported", req.NewMode),
		}, nil
	}

	if _, err := c.SetCurrentMode(req.NewMode); err != nil {
		return &ChangeToModeResponse{Status: StatusGenericFailure, StatusText: err.Error()}, nil
	}
	return &ChangeToModeResponse{Status: StatusSuccess}, nil
}

func (c *Cluster) notifyModeChange(from, to uint8) {
	if c.log != nil {
		c.log.Debugf("endpoint %d mode %d -> %d", c.EndpointID(), from, to)
	}
	if c.config.OnModeChange != nil {
		c.config.OnModeChange(c.EndpointID(), from, to)
	}
}

var _ datamodel.Cluster = (*Cluster)(nil)
