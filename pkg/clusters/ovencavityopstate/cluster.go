// Package ovencavityopstate implements the Oven Cavity Operational State
// Cluster (0x0048).
//
// The cluster reports the phase list of the running program, the current
// phase and the generic Stopped/Running/Paused/Error state machine driven
// by the Pause, Stop, Start and Resume commands.
package ovencavityopstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       = datamodel.ClusterOvenCavityOperationalState
	ClusterRevision = 1
)

// Attribute IDs.
const (
	AttrPhaseList            datamodel.AttributeID = 0x0000
	AttrCurrentPhase         datamodel.AttributeID = 0x0001
	AttrOperationalStateList datamodel.AttributeID = 0x0003
	AttrOperationalState     datamodel.AttributeID = 0x0004
	AttrOperationalError     datamodel.AttributeID = 0x0005
)

// Command IDs.
const (
	CmdPause                      datamodel.CommandID = 0x00
	CmdStop                       datamodel.CommandID = 0x01
	CmdStart                      datamodel.CommandID = 0x02
	CmdResume                     datamodel.CommandID = 0x03
	CmdOperationalCommandResponse datamodel.CommandID = 0x04
)

// Metadata describes the cluster type.
var Metadata = datamodel.ClusterMetadata{
	ID:       ClusterID,
	Revision: ClusterRevision,
	Attributes: []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrPhaseList, datamodel.AttrQualityNullable|datamodel.AttrQualityList, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrCurrentPhase, datamodel.AttrQualityNullable, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrOperationalStateList, datamodel.AttrQualityList, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrOperationalState, 0, datamodel.PrivilegeView),
		datamodel.NewReadOnlyAttribute(AttrOperationalError, 0, datamodel.PrivilegeView),
	},
	AcceptedCommands: []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdPause, 0, datamodel.PrivilegeOperate),
		datamodel.NewCommandEntry(CmdStop, 0, datamodel.PrivilegeOperate),
		datamodel.NewCommandEntry(CmdStart, 0, datamodel.PrivilegeOperate),
		datamodel.NewCommandEntry(CmdResume, 0, datamodel.PrivilegeOperate),
	},
	GeneratedCommands: []datamodel.CommandID{CmdOperationalCommandResponse},
}

// StateChangeCallback is called after a command moved the operational state.
type StateChangeCallback func(endpoint datamodel.EndpointID, from, to OperationalState)

// Config provides dependencies for the Oven Cavity Operational State cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// PhaseList is the initial phase table. All empty by default.
	PhaseList PhaseList

	// OnStateChange callback when a command changes the state (optional).
	OnStateChange StateChangeCallback

	// DataVersion seeds the data version. Random when nil.
	DataVersion *datamodel.DataVersion
}

// Cluster implements the Oven Cavity Operational State cluster (0x0048).
type Cluster struct {
	*datamodel.ClusterBase
	config Config

	mu                   sync.RWMutex
	phaseList            datamodel.Cell[PhaseList]
	currentPhase         datamodel.Cell[datamodel.Nullable[uint8]]
	operationalStateList datamodel.ListCell[OperationalStateStruct]
	operationalState     datamodel.Cell[OperationalState]
	operationalError     datamodel.Cell[ErrorState]
}

// New creates a new Oven Cavity Operational State cluster.
func New(cfg Config) *Cluster {
	var dv *datamodel.Dataver
	if cfg.DataVersion != nil {
		dv = datamodel.NewDataver(*cfg.DataVersion)
	}
	base := datamodel.NewClusterBase(&Metadata, cfg.EndpointID, dv)
	d := base.Dataver()

	currentPhase := datamodel.Null[uint8]()
	if len(cfg.PhaseList.Phases()) > 0 {
		currentPhase = datamodel.NewNullable[uint8](0)
	}

	return &Cluster{
		ClusterBase:          base,
		config:               cfg,
		phaseList:            datamodel.NewCell(d, cfg.PhaseList),
		currentPhase:         datamodel.NewCell(d, currentPhase),
		operationalStateList: datamodel.NewComparableListCell(d, DefaultOperationalStates),
		operationalState:     datamodel.NewCell(d, StateStopped),
		operationalError:     datamodel.NewCell(d, NoError),
	}
}

// PhaseList returns the phase table.
func (c *Cluster) PhaseList() PhaseList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phaseList.Get()
}

// SetPhaseList replaces the phase table and reports whether it changed.
// CurrentPhase follows the table: it becomes null when the table empties
// and 0 when it falls outside the table or the table was empty before.
func (c *Cluster) SetPhaseList(pl PhaseList) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.phaseList.Set(pl) {
		return false
	}
	n := len(pl.Phases())
	cur := c.currentPhase.Get()
	switch {
	case n == 0:
		c.currentPhase.Set(datamodel.Null[uint8]())
	case !cur.Valid || int(cur.Value) >= n:
		c.currentPhase.Set(datamodel.NewNullable[uint8](0))
	}
	return true
}

// CurrentPhase returns the index into the phase list, or null.
func (c *Cluster) CurrentPhase() datamodel.Nullable[uint8] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentPhase.Get()
}

// SetCurrentPhase selects the active phase. The index must address a
// populated phase; null is only accepted when the phase list is empty.
func (c *Cluster) SetCurrentPhase(phase datamodel.Nullable[uint8]) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.phaseList.Get().Phases())
	switch {
	case !phase.Valid && n > 0:
		return false, fmt.Errorf("%w: current phase must be set when phases exist", datamodel.ErrConstraintError)
	case phase.Valid && int(phase.Value) >= n:
		return false, fmt.Errorf("%w: phase %d of %d", datamodel.ErrConstraintError, phase.Value, n)
	}
	return c.currentPhase.Set(phase), nil
}

// OperationalStateList returns the supported states.
func (c *Cluster) OperationalStateList() []OperationalStateStruct {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operationalStateList.Get()
}

// OperationalState returns the current state.
func (c *Cluster) OperationalState() OperationalState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operationalState.Get()
}

// OperationalError returns the current error state.
func (c *Cluster) OperationalError() ErrorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operationalError.Get()
}

// SetOperationalError reports a device fault. Any error other than
// ErrorNoError moves the cavity to StateError.
func (c *Cluster) SetOperationalError(e ErrorState) bool {
	c.mu.Lock()
	changed := c.operationalError.Set(e)
	from := c.operationalState.Get()
	if e.ID != ErrorNoError {
		changed = c.operationalState.Set(StateError) || changed
	}
	c.mu.Unlock()

	c.notifyStateChange(from, c.OperationalState())
	return changed
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(_ context.Context, req datamodel.ReadAttributeRequest, enc *datamodel.AttrDataEncoder) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Read(req, enc, c.readAttribute)
}

func (c *Cluster) readAttribute(id datamodel.AttributeID, w *datamodel.AttrDataWriter) error {
	switch id {
	case AttrPhaseList:
		phases := c.phaseList.Get().Phases()
		if len(phases) == 0 {
			return w.PutNull()
		}
		return w.PutStringList(phases)

	case AttrCurrentPhase:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			return datamodel.PutNullableUint(tw, tag, c.currentPhase.Get())
		})

	case AttrOperationalStateList:
		return w.Encode(func(tw *tlv.Writer, tag tlv.Tag) error {
			if err := tw.StartArray(tag); err != nil {
				return err
			}
			for _, s := range c.operationalStateList.Get() {
				if err := s.encode(tw, tlv.Anonymous()); err != nil {
					return err
				}
			}
			return tw.EndContainer()
		})

	case AttrOperationalState:
		return w.PutUint(uint64(c.operationalState.Get()))

	case AttrOperationalError:
		return w.Encode(c.operationalError.Get().encode)

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

func (c *Cluster) invoke(_ context.Context, req datamodel.InvokeRequest, _ *tlv.Reader) (datamodel.CommandResponse, error) {
	c.mu.Lock()
	from := c.operationalState.Get()
	var result ErrorState
	switch req.Path.Command {
	case CmdPause:
		result = c.handlePause()
	case CmdStop:
		result = c.handleStop()
	case CmdStart:
		result = c.handleStart()
	case CmdResume:
		result = c.handleResume()
	default:
		c.mu.Unlock()
		return nil, datamodel.ErrUnsupportedCommand
	}
	to := c.operationalState.Get()
	c.mu.Unlock()

	c.notifyStateChange(from, to)
	return &OperationalCommandResponse{CommandResponseState: result}, nil
}

func invalidInState(s OperationalState) ErrorState {
	return ErrorState{ID: ErrorCommandInvalidInState, Details: "state " + s.String()}
}

func (c *Cluster) handlePause() ErrorState {
	switch s := c.operationalState.Get(); s {
	case StateRunning:
		c.operationalState.Set(StatePaused)
	case StatePaused:
	default:
		return invalidInState(s)
	}
	return NoError
}

func (c *Cluster) handleResume() ErrorState {
	switch s := c.operationalState.Get(); s {
	case StatePaused:
		c.operationalState.Set(StateRunning)
	case StateRunning:
	default:
		return invalidInState(s)
	}
	return NoError
}

func (c *Cluster) handleStart() ErrorState {
	switch s := c.operationalState.Get(); s {
	case StateStopped:
		c.operationalState.Set(StateRunning)
	case StateRunning:
	case StateError:
		return ErrorState{ID: ErrorUnableToStartOrResume}
	default:
		return invalidInState(s)
	}
	return NoError
}

// handleStop always ends in StateStopped and clears a pending error.
func (c *Cluster) handleStop() ErrorState {
	c.operationalState.Set(StateStopped)
	c.operationalError.Set(NoError)
	return NoError
}

func (c *Cluster) notifyStateChange(from, to OperationalState) {
	if from != to && c.config.OnStateChange != nil {
		c.config.OnStateChange(c.EndpointID(), from, to)
	}
}

var _ datamodel.Cluster = (*Cluster)(nil)
