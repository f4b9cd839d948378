package onoff

import (
	"context"
	"errors"
	"testing"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
)

func createTestCluster(storage clusters.Storage, startUp *StartUpOnOff) *Cluster {
	version := datamodel.DataVersion(20)
	return New(Config{
		EndpointID:   4,
		Storage:      storage,
		StartUpOnOff: startUp,
		DataVersion:  &version,
	})
}

func invoke(t *testing.T, c *Cluster, cmd datamodel.CommandID) error {
	t.Helper()
	_, err := c.InvokeCommand(context.Background(), datamodel.InvokeRequest{Path: c.CommandPath(cmd)}, nil)
	return err
}

func TestReadOnOff_InitialState(t *testing.T) {
	c := createTestCluster(nil, nil)

	data, err := datamodel.ReadAttributeData(context.Background(), c, AttrOnOff, nil)
	if err != nil {
		t.Fatalf("ReadAttribute failed: %v", err)
	}
	if data.Value != false {
		t.Errorf("OnOff = %v, want false", data.Value)
	}
	if data.DataVersion != 20 {
		t.Errorf("DataVersion = %v, want 20", data.DataVersion)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		cmds []datamodel.CommandID
		want bool
		bump datamodel.DataVersion
	}{
		{"on", []datamodel.CommandID{CmdOn}, true, 1},
		{"on twice", []datamodel.CommandID{CmdOn, CmdOn}, true, 1},
		{"off when off", []datamodel.CommandID{CmdOff}, false, 0},
		{"toggle", []datamodel.CommandID{CmdToggle}, true, 1},
		{"toggle twice", []datamodel.CommandID{CmdToggle, CmdToggle}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestCluster(nil, nil)
			for _, cmd := range tt.cmds {
				if err := invoke(t, c, cmd); err != nil {
					t.Fatalf("invoke 0x%02X: %v", cmd, err)
				}
			}
			if c.GetOnOff() != tt.want {
				t.Errorf("GetOnOff() = %v, want %v", c.GetOnOff(), tt.want)
			}
			if c.DataVersion() != 20+tt.bump {
				t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), 20+tt.bump)
			}
		})
	}
}

func TestUnsupportedCommand(t *testing.T) {
	c := createTestCluster(nil, nil)
	if err := invoke(t, c, 0x40); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("OffWithEffect error = %v, want ErrUnsupportedCommand", err)
	}
}

func TestWriteOnOff_ReadOnly(t *testing.T) {
	c := createTestCluster(nil, nil)
	err := c.WriteAttribute(context.Background(), datamodel.WriteAttributeRequest{Path: c.AttributePath(AttrOnOff)}, nil)
	if !errors.Is(err, datamodel.ErrUnsupportedWrite) {
		t.Errorf("WriteAttribute() error = %v, want ErrUnsupportedWrite", err)
	}
}

func TestStateChangeCallback(t *testing.T) {
	var calls []bool
	c := New(Config{
		EndpointID:    4,
		OnStateChange: func(_ datamodel.EndpointID, v bool) { calls = append(calls, v) },
	})
	c.SetOnOff(true)
	c.SetOnOff(true)
	c.Toggle()

	if len(calls) != 2 || calls[0] != true || calls[1] != false {
		t.Errorf("callback calls = %v, want [true false]", calls)
	}
}

func TestStartUpOnOff(t *testing.T) {
	ptr := func(s StartUpOnOff) *StartUpOnOff { return &s }

	tests := []struct {
		name     string
		previous bool
		startUp  *StartUpOnOff
		want     bool
	}{
		{"previous on", true, nil, true},
		{"previous off", false, ptr(StartUpOnOffPrevious), false},
		{"force off", true, ptr(StartUpOnOffOff), false},
		{"force on", false, ptr(StartUpOnOffOn), true},
		{"toggle", true, ptr(StartUpOnOffToggle), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := clusters.NewMemoryStorage()
			first := createTestCluster(storage, nil)
			first.SetOnOff(tt.previous)
			if !tt.previous {
				// Persist an explicit false.
				first.SetOnOff(true)
				first.SetOnOff(false)
			}

			c := createTestCluster(storage, tt.startUp)
			if c.GetOnOff() != tt.want {
				t.Errorf("GetOnOff() = %v, want %v", c.GetOnOff(), tt.want)
			}
			if c.DataVersion() != 20 {
				t.Errorf("startup changed DataVersion to %v", c.DataVersion())
			}
		})
	}
}

func TestStartUpOnOff_String(t *testing.T) {
	if StartUpOnOffPrevious.String() != "Previous" || StartUpOnOff(9).String() != "Unknown" {
		t.Error("unexpected StartUpOnOff names")
	}
}
