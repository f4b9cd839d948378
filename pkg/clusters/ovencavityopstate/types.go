package ovencavityopstate

import (
	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// MaxPhases is the capacity of the phase list.
const MaxPhases = 32

// PhaseList is a fixed-capacity table of phase labels. Entries after the
// first empty label are ignored.
type PhaseList [MaxPhases]string

// NewPhaseList builds a PhaseList from labels. Labels beyond MaxPhases
// are dropped.
func NewPhaseList(labels ...string) PhaseList {
	var pl PhaseList
	copy(pl[:], labels)
	return pl
}

// Phases returns the populated labels.
func (pl PhaseList) Phases() []string {
	return clusters.NonEmptyPrefix(pl[:])
}

// OperationalState is the operational state enumeration.
type OperationalState uint8

const (
	StateStopped OperationalState = 0x00
	StateRunning OperationalState = 0x01
	StatePaused  OperationalState = 0x02
	StateError   OperationalState = 0x03
)

func (s OperationalState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorStateID is the operational error enumeration.
type ErrorStateID uint8

const (
	ErrorNoError                   ErrorStateID = 0x00
	ErrorUnableToStartOrResume     ErrorStateID = 0x01
	ErrorUnableToCompleteOperation ErrorStateID = 0x02
	ErrorCommandInvalidInState     ErrorStateID = 0x03
)

// OperationalStateStruct describes one entry of OperationalStateList.
type OperationalStateStruct struct {
	ID    OperationalState
	Label string
}

// DefaultOperationalStates lists the generic states with their labels.
var DefaultOperationalStates = []OperationalStateStruct{
	{ID: StateStopped, Label: "Stopped"},
	{ID: StateRunning, Label: "Running"},
	{ID: StatePaused, Label: "Paused"},
	{ID: StateError, Label: "Error"},
}

func (s OperationalStateStruct) encode(w *tlv.Writer, tag tlv.Tag) error {
	return clusters.PutStruct(w, tag, func(w *tlv.Writer) error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(s.ID)); err != nil {
			return err
		}
		if s.Label == "" {
			return nil
		}
		return w.PutString(tlv.ContextTag(1), s.Label)
	})
}

// ErrorState is the ErrorStateStruct carried by OperationalError and the
// command response.
type ErrorState struct {
	ID      ErrorStateID
	Label   string
	Details string
}

// NoError is the error state of a healthy cavity.
var NoError = ErrorState{ID: ErrorNoError}

func (e ErrorState) encode(w *tlv.Writer, tag tlv.Tag) error {
	return clusters.PutStruct(w, tag, func(w *tlv.Writer) error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(e.ID)); err != nil {
			return err
		}
		if e.Label != "" {
			if err := w.PutString(tlv.ContextTag(1), e.Label); err != nil {
				return err
			}
		}
		if e.Details != "" {
			return w.PutString(tlv.ContextTag(2), e.Details)
		}
		return nil
	})
}

// OperationalCommandResponse is sent in reply to Pause, Stop, Start and
// Resume.
type OperationalCommandResponse struct {
	CommandResponseState ErrorState
}

// ResponseCommandID implements datamodel.CommandResponse.
func (r *OperationalCommandResponse) ResponseCommandID() datamodel.CommandID {
	return CmdOperationalCommandResponse
}

// MarshalTLV implements datamodel.CommandResponse.
func (r *OperationalCommandResponse) MarshalTLV(w *tlv.Writer) error {
	return clusters.PutStruct(w, tlv.Anonymous(), func(w *tlv.Writer) error {
		return r.CommandResponseState.encode(w, tlv.ContextTag(0))
	})
}
