package refrigeratormode

import (
	"slices"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Mode tag values shared by all mode clusters.
const (
	TagAuto      uint16 = 0x0000
	TagQuick     uint16 = 0x0001
	TagQuiet     uint16 = 0x0002
	TagLowNoise  uint16 = 0x0003
	TagLowEnergy uint16 = 0x0004
	TagVacation  uint16 = 0x0005
	TagMin       uint16 = 0x0006
	TagMax       uint16 = 0x0007
	TagNight     uint16 = 0x0008
	TagDay       uint16 = 0x0009
)

// Mode tag values specific to this cluster.
const (
	TagRapidCool   uint16 = 0x4000
	TagRapidFreeze uint16 = 0x4001
)

// ModeTag qualifies a mode. MfgCode is null for standard tags.
type ModeTag struct {
	MfgCode datamodel.Nullable[uint16]
	Value   uint16
}

func (t ModeTag) encode(w *tlv.Writer, tag tlv.Tag) error {
	return clusters.PutStruct(w, tag, func(w *tlv.Writer) error {
		if t.MfgCode.Valid {
			if err := w.PutUint(tlv.ContextTag(0), uint64(t.MfgCode.Value)); err != nil {
				return err
			}
		}
		return w.PutUint(tlv.ContextTag(1), uint64(t.Value))
	})
}

// ModeOption is one entry of SupportedModes.
type ModeOption struct {
	Label    string
	Mode     uint8
	ModeTags []ModeTag
}

func (o ModeOption) encode(w *tlv.Writer, tag tlv.Tag) error {
	return clusters.PutStruct(w, tag, func(w *tlv.Writer) error {
		if err := w.PutString(tlv.ContextTag(0), o.Label); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(1), uint64(o.Mode)); err != nil {
			return err
		}
		if err := w.StartArray(tlv.ContextTag(2)); err != nil {
			return err
		}
		for _, t := range o.ModeTags {
			if err := t.encode(w, tlv.Anonymous()); err != nil {
				return err
			}
		}
		return w.EndContainer()
	})
}

func modeOptionEqual(a, b ModeOption) bool {
	return a.Label == b.Label && a.Mode == b.Mode && slices.Equal(a.ModeTags, b.ModeTags)
}

// DefaultSupportedModes is used when Config.SupportedModes is empty.
var DefaultSupportedModes = []ModeOption{
	{Label: "Normal", Mode: 0, ModeTags: []ModeTag{{Value: TagAuto}}},
	{Label: "Rapid Cool", Mode: 1, ModeTags: []ModeTag{{Value: TagRapidCool}}},
	{Label: "Rapid Freeze", Mode: 2, ModeTags: []ModeTag{{Value: TagRapidFreeze}}},
}

// ChangeToModeStatus is the Status field of ChangeToModeResponse.
type ChangeToModeStatus uint8

const (
	StatusSuccess         ChangeToModeStatus = 0x00
	StatusUnsupportedMode ChangeToModeStatus = 0x01
	StatusGenericFailure  ChangeToModeStatus = 0x02
	StatusInvalidInMode   ChangeToModeStatus = 0x03
)

func (s ChangeToModeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusUnsupportedMode:
		return "UnsupportedMode"
	case StatusGenericFailure:
		return "GenericFailure"
	case StatusInvalidInMode:
		return "InvalidInMode"
	default:
		return "Unknown"
	}
}

// ChangeToModeRequest holds the fields of ChangeToMode.
type ChangeToModeRequest struct {
	NewMode uint8

	present bool
}

// UnmarshalTLV implements clusters.TLVUnmarshaler.
func (req *ChangeToModeRequest) UnmarshalTLV(r *tlv.Reader) error {
	err := clusters.ReadFields(r, func(tag uint8) error {
		if tag != 0 {
			return r.Skip()
		}
		v, err := r.Uint8()
		if err != nil {
			return err
		}
		req.NewMode = v
		req.present = true
		return nil
	})
	if err != nil {
		return err
	}
	if !req.present {
		return clusters.ErrMissingField
	}
	return nil
}

// ChangeToModeResponse is sent in reply to ChangeToMode.
type ChangeToModeResponse struct {
	Status     ChangeToModeStatus
	StatusText string
}

// ResponseCommandID implements datamodel.CommandResponse.
func (r *ChangeToModeResponse) ResponseCommandID() datamodel.CommandID {
	return CmdChangeToModeResponse
}

// MarshalTLV implements datamodel.CommandResponse.
func (r *ChangeToModeResponse) MarshalTLV(w *tlv.Writer) error {
	return clusters.PutStruct(w, tlv.Anonymous(), func(w *tlv.Writer) error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(r.Status)); err != nil {
			return err
		}
		if r.StatusText == "" {
			return nil
		}
		return w.PutString(tlv.ContextTag(1), r.StatusText)
	})
}
