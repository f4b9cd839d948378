package temperaturecontrol

import (
	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// SetTemperatureRequest holds the fields of SetTemperature. Exactly one
// field must be present.
type SetTemperatureRequest struct {
	TargetTemperature      *int16
	TargetTemperatureLevel *uint8
}

// UnmarshalTLV implements clusters.TLVUnmarshaler.
func (req *SetTemperatureRequest) UnmarshalTLV(r *tlv.Reader) error {
	return clusters.ReadFields(r, func(tag uint8) error {
		switch tag {
		case 0:
			v, err := r.Int16()
			if err != nil {
				return err
			}
			req.TargetTemperature = &v
		case 1:
			v, err := r.Uint8()
			if err != nil {
				return err
			}
			req.TargetTemperatureLevel = &v
		default:
			return r.Skip()
		}
		return nil
	})
}

// MarshalTLV implements clusters.TLVMarshaler.
func (req *SetTemperatureRequest) MarshalTLV(w *tlv.Writer) error {
	return clusters.PutStruct(w, tlv.Anonymous(), func(w *tlv.Writer) error {
		if req.TargetTemperature != nil {
			if err := w.PutInt(tlv.ContextTag(0), int64(*req.TargetTemperature)); err != nil {
				return err
			}
		}
		if req.TargetTemperatureLevel != nil {
			return w.PutUint(tlv.ContextTag(1), uint64(*req.TargetTemperatureLevel))
		}
		return nil
	})
}
