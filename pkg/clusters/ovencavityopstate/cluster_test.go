package ovencavityopstate

import (
	"context"
	"errors"
	"testing"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

func newCluster(version datamodel.DataVersion) *Cluster {
	return New(Config{EndpointID: 1, DataVersion: &version})
}

// invoke runs a command and returns the ErrorStateID of the response.
func invoke(t *testing.T, c *Cluster, cmd datamodel.CommandID) ErrorStateID {
	t.Helper()
	req := datamodel.InvokeRequest{Path: c.CommandPath(cmd)}
	resp, err := c.InvokeCommand(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("InvokeCommand(0x%02X) error = %v", cmd, err)
	}
	v, err := tlv.DecodeBytes(resp)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	fields, ok := v.(map[uint32]any)
	if !ok {
		t.Fatalf("response = %T, want struct", v)
	}
	state, ok := fields[0].(map[uint32]any)
	if !ok {
		t.Fatalf("CommandResponseState = %T, want struct", fields[0])
	}
	id, _ := state[0].(uint64)
	return ErrorStateID(id)
}

func TestPhaseListScenario(t *testing.T) {
	c := newCluster(10)

	var empty PhaseList
	if c.PhaseList() != empty {
		t.Fatalf("PhaseList() = %v, want 32 empty entries", c.PhaseList())
	}

	v := c.DataVersion()
	if c.SetPhaseList(empty) {
		t.Error("SetPhaseList(identical) = true")
	}
	if c.DataVersion() != v {
		t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), v)
	}
	if c.ConsumeChange() {
		t.Error("ConsumeChange() = true after identical set")
	}

	// PhaseList and CurrentPhase both change: null becomes 0.
	if !c.SetPhaseList(NewPhaseList("preheat", "bake", "cool")) {
		t.Fatal("SetPhaseList(different) = false")
	}
	if c.DataVersion() != v+2 {
		t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), v+2)
	}
	if !c.ConsumeChange() {
		t.Error("ConsumeChange() = false after change")
	}
	if got := c.CurrentPhase(); got != datamodel.NewNullable[uint8](0) {
		t.Errorf("CurrentPhase() = %v, want 0", got)
	}
	if changed, err := c.SetCurrentPhase(datamodel.NewNullable[uint8](2)); err != nil || !changed {
		t.Errorf("SetCurrentPhase(2) = (%v, %v), want (true, nil)", changed, err)
	}

	if !c.SetPhaseList(empty) {
		t.Fatal("SetPhaseList(empty) = false")
	}
	if !c.CurrentPhase().IsNull() {
		t.Errorf("CurrentPhase() = %v after emptying, want null", c.CurrentPhase())
	}
}

func TestReadPhaseList(t *testing.T) {
	ctx := context.Background()
	c := newCluster(1)

	data, err := datamodel.ReadAttributeData(ctx, c, AttrPhaseList, nil)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if data.Value != nil {
		t.Errorf("empty PhaseList = %v, want null", data.Value)
	}

	c.SetPhaseList(NewPhaseList("preheat", "bake"))
	data, err = datamodel.ReadAttributeData(ctx, c, AttrPhaseList, nil)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	got, ok := data.Value.([]any)
	if !ok || len(got) != 2 || got[0] != "preheat" || got[1] != "bake" {
		t.Errorf("PhaseList = %v, want [preheat bake]", data.Value)
	}
}

func TestReadAttribute(t *testing.T) {
	ctx := context.Background()
	c := New(Config{EndpointID: 1, PhaseList: NewPhaseList("bake")})

	for _, entry := range Metadata.AttributeList() {
		if _, err := datamodel.ReadAttributeData(ctx, c, entry.ID, nil); err != nil {
			t.Errorf("read 0x%04X error = %v", entry.ID, err)
		}
	}

	data, err := datamodel.ReadAttributeData(ctx, c, AttrCurrentPhase, nil)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if data.Value != uint64(0) {
		t.Errorf("CurrentPhase = %v, want 0", data.Value)
	}

	data, err = datamodel.ReadAttributeData(ctx, c, AttrOperationalStateList, nil)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if states, _ := data.Value.([]any); len(states) != len(DefaultOperationalStates) {
		t.Errorf("OperationalStateList = %v, want %d entries", data.Value, len(DefaultOperationalStates))
	}

	for _, id := range []datamodel.AttributeID{0x0002, 0x0006, 0xFFFA} {
		_, err := datamodel.ReadAttributeData(ctx, c, id, nil)
		if !errors.Is(err, datamodel.ErrUnsupportedAttribute) {
			t.Errorf("read 0x%04X error = %v, want ErrUnsupportedAttribute", id, err)
		}
	}
}

func TestSetCurrentPhase(t *testing.T) {
	c := New(Config{EndpointID: 1, PhaseList: NewPhaseList("preheat", "bake")})

	if changed, err := c.SetCurrentPhase(datamodel.NewNullable[uint8](1)); err != nil || !changed {
		t.Errorf("SetCurrentPhase(1) = (%v, %v), want (true, nil)", changed, err)
	}
	if _, err := c.SetCurrentPhase(datamodel.NewNullable[uint8](2)); !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("SetCurrentPhase(2) error = %v, want ErrConstraintError", err)
	}
	if _, err := c.SetCurrentPhase(datamodel.Null[uint8]()); !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("SetCurrentPhase(null) error = %v, want ErrConstraintError", err)
	}

	// Shrinking the table resets an out-of-range phase to the first one.
	c.SetPhaseList(NewPhaseList("bake"))
	if got := c.CurrentPhase(); got != datamodel.NewNullable[uint8](0) {
		t.Errorf("CurrentPhase() = %v, want 0", got)
	}
}

func TestStateMachine(t *testing.T) {
	tests := []struct {
		name      string
		from      OperationalState
		cmd       datamodel.CommandID
		wantError ErrorStateID
		wantState OperationalState
	}{
		{"start stopped", StateStopped, CmdStart, ErrorNoError, StateRunning},
		{"start running", StateRunning, CmdStart, ErrorNoError, StateRunning},
		{"start error", StateError, CmdStart, ErrorUnableToStartOrResume, StateError},
		{"pause running", StateRunning, CmdPause, ErrorNoError, StatePaused},
		{"pause paused", StatePaused, CmdPause, ErrorNoError, StatePaused},
		{"pause stopped", StateStopped, CmdPause, ErrorCommandInvalidInState, StateStopped},
		{"resume paused", StatePaused, CmdResume, ErrorNoError, StateRunning},
		{"resume running", StateRunning, CmdResume, ErrorNoError, StateRunning},
		{"resume stopped", StateStopped, CmdResume, ErrorCommandInvalidInState, StateStopped},
		{"stop running", StateRunning, CmdStop, ErrorNoError, StateStopped},
		{"stop error", StateError, CmdStop, ErrorNoError, StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCluster(1)
			c.mu.Lock()
			c.operationalState.Set(tt.from)
			c.mu.Unlock()

			if got := invoke(t, c, tt.cmd); got != tt.wantError {
				t.Errorf("response = %v, want %v", got, tt.wantError)
			}
			if got := c.OperationalState(); got != tt.wantState {
				t.Errorf("OperationalState() = %v, want %v", got, tt.wantState)
			}
		})
	}
}

func TestStopClearsError(t *testing.T) {
	c := newCluster(1)
	c.SetOperationalError(ErrorState{ID: ErrorUnableToCompleteOperation, Label: "door open"})

	if c.OperationalState() != StateError {
		t.Fatalf("OperationalState() = %v, want Error", c.OperationalState())
	}
	invoke(t, c, CmdStop)
	if c.OperationalError() != NoError {
		t.Errorf("OperationalError() = %+v, want NoError", c.OperationalError())
	}
}

func TestOnStateChange(t *testing.T) {
	type change struct{ from, to OperationalState }
	var got []change
	c := New(Config{
		EndpointID: 2,
		OnStateChange: func(ep datamodel.EndpointID, from, to OperationalState) {
			if ep != 2 {
				t.Errorf("endpoint = %d, want 2", ep)
			}
			got = append(got, change{from, to})
		},
	})

	invoke(t, c, CmdStart)
	invoke(t, c, CmdStart)
	invoke(t, c, CmdPause)

	want := []change{{StateStopped, StateRunning}, {StateRunning, StatePaused}}
	if len(got) != len(want) {
		t.Fatalf("callbacks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInvokeUnsupported(t *testing.T) {
	c := newCluster(1)
	v := c.DataVersion()

	req := datamodel.InvokeRequest{Path: c.CommandPath(CmdOperationalCommandResponse)}
	if _, err := c.InvokeCommand(context.Background(), req, nil); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("InvokeCommand(0x04) error = %v, want ErrUnsupportedCommand", err)
	}
	if c.DataVersion() != v {
		t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), v)
	}
}

func TestWriteAttribute_ReadOnly(t *testing.T) {
	c := newCluster(1)
	req := datamodel.WriteAttributeRequest{Path: c.AttributePath(AttrOperationalState)}
	if err := c.WriteAttribute(context.Background(), req, nil); !errors.Is(err, datamodel.ErrUnsupportedWrite) {
		t.Errorf("WriteAttribute() error = %v, want ErrUnsupportedWrite", err)
	}
}
