// Package temperaturecontrol implements the Temperature Control Cluster
// (0x0056).
//
// An instance runs in one of two mutually exclusive modes, fixed at
// construction: a numeric setpoint bounded by MinTemperature,
// MaxTemperature and Step (TemperatureNumber), or a table of named
// temperature levels (TemperatureLevel). A non-empty level table selects
// level mode. The feature map advertises the mode and SetTemperature only
// accepts the matching target.
package temperaturecontrol

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       = datamodel.ClusterTemperatureControl
	ClusterRevision = 1
)

// Feature bits.
const (
	FeatureTemperatureNumber uint32 = 1 << 0
	FeatureTemperatureLevel  uint32 = 1 << 1
	FeatureTemperatureStep   uint32 = 1 << 2
)

// Attribute IDs.
const (
	AttrTemperatureSetpoint        datamodel.AttributeID = 0x0000
	AttrMinTemperature             datamodel.AttributeID = 0x0001
	AttrMaxTemperature             datamodel.AttributeID = 0x0002
	AttrStep                       datamodel.AttributeID = 0x0003
	AttrSelectedTemperatureLevel   datamodel.AttributeID = 0x0004
	AttrSupportedTemperatureLevels datamodel.AttributeID = 0x0005
)

// Command IDs.
const (
	CmdSetTemperature datamodel.CommandID = 0x00
)

// MaxLevels is the capacity of the temperature level table.
const MaxLevels = 32

// Levels is a fixed-capacity table of temperature level labels. Entries
// after the first empty label are ignored.
type Levels [MaxLevels]string

// NewLevels builds a Levels table from labels.
func NewLevels(labels ...string) Levels {
	var l Levels
	copy(l[:], labels)
	return l
}

// Labels returns the populated labels.
func (l Levels) Labels() []string {
	return clusters.NonEmptyPrefix(l[:])
}

// Metadata describes the cluster type. Each instance copies it with the
// feature map derived from its Config.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrTemperatureSetpoint, 0, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrMinTemperature, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrMaxTemperature, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrStep, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSelectedTemperatureLevel, 0, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrSupportedTemperatureLevels, datamodel.AttrQualityList, datamodel.PrivilegeView),
	},
	AcceptedCommands: []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdSetTemperature, 0, datamodel.PrivilegeOperate),
	},
}

// SetTemperatureCallback is called after SetTemperature changed the
// setpoint or the selected level.
type SetTemperatureCallback func(endpoint datamodel.EndpointID, setpoint int16, level uint8)

// Config provides dependencies for the Temperature Control cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// MinTemperature defaults to math.MinInt16 when nil.
	MinTemperature *int16

	// MaxTemperature defaults to math.MaxInt16 when nil.
	MaxTemperature *int16

	// Step defaults to 1 when nil.
	Step *int16

	// SupportedLevels is the initial level table.
	SupportedLevels Levels

	// OnSetTemperature callback (optional).
	OnSetTemperature SetTemperatureCallback

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion
}

// Cluster implements the Temperature Control cluster (0x0056).
type Cluster struct {
	*datamodel.ClusterBase
	config Config

	mu              sync.RWMutex
	setpoint        datamodel.Cell[int16]
	minTemperature  datamodel.Cell[int16]
	maxTemperature  datamodel.Cell[int16]
	step            datamodel.Cell[int16]
	selectedLevel   datamodel.Cell[uint8]
	supportedLevels datamodel.Cell[Levels]
}

// New creates a new Temperature Control cluster.
func New(cfg Config) (*Cluster, error) {
	minT, maxT, step := int16(math.MinInt16), int16(math.MaxInt16), int16(1)
	if cfg.MinTemperature != nil {
		minT = *cfg.MinTemperature
	}
	if cfg.MaxTemperature != nil {
		maxT = *cfg.MaxTemperature
	}
	if cfg.Step != nil {
		step = *cfg.Step
	}
	if err := validateLimits(minT, maxT, step); err != nil {
		return nil, err
	}

	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	meta := Metadata
	meta.FeatureMap = featureMap(cfg)
	base := datamodel.NewClusterBase(&meta, cfg.EndpointID, dv)
	d := base.Dataver()

	setpoint := int16(0)
	if setpoint < minT || setpoint > maxT {
		setpoint = minT
	}

	return &Cluster{
		ClusterBase:     base,
		config:          cfg,
		setpoint:        datamodel.NewCell(d, setpoint),
		minTemperature:  datamodel.NewCell(d, minT),
		maxTemperature:  datamodel.NewCell(d, maxT),
		step:            datamodel.NewCell(d, step),
		selectedLevel:   datamodel.NewCell(d, uint8(0)),
		supportedLevels: datamodel.NewCell(d, cfg.SupportedLevels),
	}, nil
}

func featureMap(cfg Config) uint32 {
	if len(cfg.SupportedLevels.Labels()) > 0 {
		return FeatureTemperatureLevel
	}
	features := FeatureTemperatureNumber
	if cfg.Step != nil {
		features |= FeatureTemperatureStep
	}
	return features
}

func validateLimits(minT, maxT, step int16) error {
	if minT > maxT {
		return fmt.Errorf("%w: min %d > max %d", datamodel.ErrConstraintError, minT, maxT)
	}
	if step < 1 {
		return fmt.Errorf("%w: step %d", datamodel.ErrConstraintError, step)
	}
	return nil
}

// TemperatureSetpoint returns the setpoint in hundredths of a degree.
func (c *Cluster) TemperatureSetpoint() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setpoint.Get()
}

// SetTemperatureSetpoint stores v without range checks. Commands go
// through SetTemperature.
func (c *Cluster) SetTemperatureSetpoint(v int16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setpoint.Set(v)
}

// MinTemperature returns the lowest accepted setpoint.
func (c *Cluster) MinTemperature() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minTemperature.Get()
}

// MaxTemperature returns the highest accepted setpoint.
func (c *Cluster) MaxTemperature() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxTemperature.Get()
}

// Step returns the setpoint granularity.
func (c *Cluster) Step() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.step.Get()
}

// SetLimits replaces MinTemperature, MaxTemperature and Step. The version
// moves once per attribute that changed.
func (c *Cluster) SetLimits(minT, maxT, step int16) (bool, error) {
	if err := validateLimits(minT, maxT, step); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.minTemperature.Set(minT)
	changed = c.maxTemperature.Set(maxT) || changed
	changed = c.step.Set(step) || changed
	return changed, nil
}

// SelectedTemperatureLevel returns the index into SupportedTemperatureLevels.
func (c *Cluster) SelectedTemperatureLevel() uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedLevel.Get()
}

// SetSelectedTemperatureLevel stores v without checking the level table.
func (c *Cluster) SetSelectedTemperatureLevel(v uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLevel.Set(v)
}

// SupportedTemperatureLevels returns the level table.
func (c *Cluster) SupportedTemperatureLevels() Levels {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supportedLevels.Get()
}

// SetSupportedTemperatureLevels replaces the level table. The feature map
// keeps the mode chosen by New.
func (c *Cluster) SetSupportedTemperatureLevels(l Levels) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supportedLevels.Set(l)
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrTemperatureSetpoint:
		return w.PutInt(int64(c.setpoint.Get()))
	case AttrMinTemperature:
		return w.PutInt(int64(c.minTemperature.Get()))
	case AttrMaxTemperature:
		return w.PutInt(int64(c.maxTemperature.Get()))
	case AttrStep:
		return w.PutInt(int64(c.step.Get()))
	case AttrSelectedTemperatureLevel:
		return w.PutUint(uint64(c.selectedLevel.Get()))
	case AttrSupportedTemperatureLevels:
		return w.PutStringList(c.supportedLevels.Get().Labels())
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster. No attribute is writable.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	return c.Write(ctx, req, r, func(context.Context, datamodel.WriteAttributeRequest, *tlv.Reader) error {
		return datamodel.ErrUnsupportedWrite
	})
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, c.invoke)
}

func (c *Cluster) invoke(_ context.Context, req datamodel.InvokeRequest, r *tlv.Reader) (datamodel.CommandResponse, error) {
	switch req.Path.Command {
	case CmdSetTemperature:
		return nil, c.handleSetTemperature(r)
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
}

// handleSetTemperature validates the request against the current limits
// and level table before any cell is touched.
func (c *Cluster) handleSetTemperature(r *tlv.Reader) error {
	var req SetTemperatureRequest
	if err := clusters.DecodeRequest(r, &req); err != nil {
		return err
	}
	target, level := req.TargetTemperature, req.TargetTemperatureLevel
	if (target == nil) == (level == nil) {
		return fmt.Errorf("%w: exactly one of TargetTemperature and TargetTemperatureLevel is required", datamodel.ErrInvalidCommand)
	}
	features := c.FeatureMap()
	if target != nil && features&FeatureTemperatureNumber == 0 {
		return fmt.Errorf("%w: TargetTemperature without TemperatureNumber", datamodel.ErrInvalidCommand)
	}
	if level != nil && features&FeatureTemperatureLevel == 0 {
		return fmt.Errorf("%w: TargetTemperatureLevel without TemperatureLevel", datamodel.ErrInvalidCommand)
	}

	c.mu.Lock()
	var changed bool
	if target != nil {
		if err := c.checkTarget(*target); err != nil {
			c.mu.Unlock()
			return err
		}
		changed = c.setpoint.Set(*target)
	} else {
		if n := len(c.supportedLevels.Get().Labels()); int(*level) >= n {
			c.mu.Unlock()
			return fmt.Errorf("%w: level %d of %d", datamodel.ErrConstraintError, *level, n)
		}
		changed = c.selectedLevel.Set(*level)
	}
	setpoint, selected := c.setpoint.Get(), c.selectedLevel.Get()
	c.mu.Unlock()

	if changed && c.config.OnSetTemperature != nil {
		c.config.OnSetTemperature(c.EndpointID(), setpoint, selected)
	}
	return nil
}

func (c *Cluster) checkTarget(t int16) error {
	minT, maxT, step := c.minTemperature.Get(), c.maxTemperature.Get(), c.step.Get()
	if t < minT || t > maxT {
		return fmt.Errorf("%w: %d outside [%d, %d]", datamodel.ErrConstraintError, t, minT, maxT)
	}
	if step > 1 && (int32(t)-int32(minT))%int32(step) != 0 {
		return fmt.Errorf("%w: %d is not a multiple of step %d from %d", datamodel.ErrConstraintError, t, step, minT)
	}
	return nil
}

var _ datamodel.Cluster = (*Cluster)(nil)
