// Package temperaturemeasurement implements the Temperature Measurement
// Cluster (0x0402).
//
// Values are in hundredths of a degree Celsius. MinMeasuredValue and
// MaxMeasuredValue are fixed for the lifetime of the instance.
package temperaturemeasurement

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       = datamodel.ClusterTemperatureMeasurement
	ClusterRevision = 1
)

// Attribute IDs.
const (
	AttrMeasuredValue    datamodel.AttributeID = 0x0000
	AttrMinMeasuredValue datamodel.AttributeID = 0x0001
	AttrMaxMeasuredValue datamodel.AttributeID = 0x0002
)

// Metadata describes the cluster type.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrMeasuredValue, datamodel.AttrQualityReportable, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrMinMeasuredValue, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrMaxMeasuredValue, datamodel.AttrQualityFixed, datamodel.PrivilegeView),
	},
}

// Config provides dependencies for the Temperature Measurement cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// MinMeasuredValue defaults to math.MinInt16 when nil.
	MinMeasuredValue *int16

	// MaxMeasuredValue defaults to math.MaxInt16 when nil.
	MaxMeasuredValue *int16

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion
}

// Cluster implements the Temperature Measurement cluster (0x0402).
type Cluster struct {
	*datamodel.ClusterBase

	mu               sync.RWMutex
	measuredValue    datamodel.Cell[int16]
	minMeasuredValue datamodel.Cell[int16]
	maxMeasuredValue datamodel.Cell[int16]
}

// New creates a new Temperature Measurement cluster.
func New(cfg Config) *Cluster {
	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(&Metadata, cfg.EndpointID, dv)

	minValue, maxValue := int16(math.MinInt16), int16(math.MaxInt16)
	if cfg.MinMeasuredValue != nil {
		minValue = *cfg.MinMeasuredValue
	}
	if cfg.MaxMeasuredValue != nil {
		maxValue = *cfg.MaxMeasuredValue
	}

	return &Cluster{
		ClusterBase:      base,
		measuredValue:    datamodel.NewCell[int16](base.Dataver(), 0),
		minMeasuredValue: datamodel.NewCell(base.Dataver(), minValue),
		maxMeasuredValue: datamodel.NewCell(base.Dataver(), maxValue),
	}
}

// MeasuredValue returns the current measurement.
func (c *Cluster) MeasuredValue() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.measuredValue.Get()
}

// MinMeasuredValue returns the lower bound of MeasuredValue.
func (c *Cluster) MinMeasuredValue() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minMeasuredValue.Get()
}

// MaxMeasuredValue returns the upper bound of MeasuredValue.
func (c *Cluster) MaxMeasuredValue() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxMeasuredValue.Get()
}

// SetMeasuredValue stores a measurement and reports whether it changed.
func (c *Cluster) SetMeasuredValue(v int16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measuredValue.Set(v)
}

// SetMinMeasuredValue stores the lower bound and reports whether it changed.
func (c *Cluster) SetMinMeasuredValue(v int16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minMeasuredValue.Set(v)
}

// SetMaxMeasuredValue stores the upper bound and reports whether it changed.
func (c *Cluster) SetMaxMeasuredValue(v int16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxMeasuredValue.Set(v)
}

// Measure records a sensor sample after checking it against the
// configured bounds.
func (c *Cluster) Measure(v int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < c.minMeasuredValue.Get() || v > c.maxMeasuredValue.Get() {
		return fmt.Errorf("%w: %d outside [%d, %d]", datamodel.ErrConstraintError,
			v, c.minMeasuredValue.Get(), c.maxMeasuredValue.Get())
	}
	c.measuredValue.Set(v)
	return nil
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrMeasuredValue:
		return w.PutInt(int64(c.measuredValue.Get()))
	case AttrMinMeasuredValue:
		return w.PutInt(int64(c.minMeasuredValue.Get()))
	case AttrMaxMeasuredValue:
		return w.PutInt(int64(c.maxMeasuredValue.Get()))
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

// InvokeCommand implements datamodel.Cluster. The cluster accepts no
// commands.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return c.Invoke(ctx, req, r, func(context.Context, datamodel.InvokeRequest, *tlv.Reader) (datamodel.CommandResponse, error) {
		return nil, datamodel.ErrUnsupportedCommand
	})
}

var _ datamodel.Cluster = (*Cluster)(nil)
