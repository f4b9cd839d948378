package temperaturecontrol

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

func ptr[T any](v T) *T { return &v }

func newCluster(t *testing.T, cfg Config) *Cluster {
	t.Helper()
	cfg.EndpointID = 1
	if cfg.DataVersion == nil {
		cfg.DataVersion = ptr(datamodel.DataVersion(1))
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func setTemperature(c *Cluster, req *SetTemperatureRequest) error {
	var buf bytes.Buffer
	if err := req.MarshalTLV(tlv.NewWriter(&buf)); err != nil {
		return err
	}
	inv := datamodel.InvokeRequest{Path: c.CommandPath(CmdSetTemperature)}
	resp, err := c.InvokeCommand(context.Background(), inv, tlv.NewReader(&buf))
	if resp != nil {
		return errors.New("unexpected response payload")
	}
	return err
}

func TestNew_Defaults(t *testing.T) {
	c := newCluster(t, Config{})

	if c.TemperatureSetpoint() != 0 {
		t.Errorf("TemperatureSetpoint() = %d, want 0", c.TemperatureSetpoint())
	}
	if c.MinTemperature() != math.MinInt16 {
		t.Errorf("MinTemperature() = %d, want %d", c.MinTemperature(), math.MinInt16)
	}
	if c.MaxTemperature() != math.MaxInt16 {
		t.Errorf("MaxTemperature() = %d, want %d", c.MaxTemperature(), math.MaxInt16)
	}
	if c.Step() != 1 {
		t.Errorf("Step() = %d, want 1", c.Step())
	}
	if c.SupportedTemperatureLevels() != (Levels{}) {
		t.Error("SupportedTemperatureLevels() not empty")
	}
}

func TestNew_InvalidLimits(t *testing.T) {
	if _, err := New(Config{MinTemperature: ptr(int16(100)), MaxTemperature: ptr(int16(0))}); !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("min > max error = %v, want ErrConstraintError", err)
	}
	if _, err := New(Config{Step: ptr(int16(0))}); !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("step 0 error = %v, want ErrConstraintError", err)
	}
}

func TestSetTemperature(t *testing.T) {
	number := Config{
		MinTemperature: ptr(int16(-2000)),
		MaxTemperature: ptr(int16(1000)),
		Step:           ptr(int16(50)),
	}
	level := Config{SupportedLevels: NewLevels("cold", "colder", "coldest")}

	tests := []struct {
		name      string
		cfg       Config
		req       SetTemperatureRequest
		wantErr   error
		wantPoint int16
		wantLevel uint8
	}{
		{name: "target", cfg: number, req: SetTemperatureRequest{TargetTemperature: ptr(int16(-1850))}, wantPoint: -1850},
		{name: "target at max", cfg: number, req: SetTemperatureRequest{TargetTemperature: ptr(int16(1000))}, wantPoint: 1000},
		{name: "below min", cfg: number, req: SetTemperatureRequest{TargetTemperature: ptr(int16(-2050))}, wantErr: datamodel.ErrConstraintError},
		{name: "above max", cfg: number, req: SetTemperatureRequest{TargetTemperature: ptr(int16(1050))}, wantErr: datamodel.ErrConstraintError},
		{name: "off step", cfg: number, req: SetTemperatureRequest{TargetTemperature: ptr(int16(-1990))}, wantErr: datamodel.ErrConstraintError},
		{name: "level in number mode", cfg: number, req: SetTemperatureRequest{TargetTemperatureLevel: ptr(uint8(0))}, wantErr: datamodel.ErrInvalidCommand},
		{name: "level", cfg: level, req: SetTemperatureRequest{TargetTemperatureLevel: ptr(uint8(2))}, wantLevel: 2},
		{name: "level out of range", cfg: level, req: SetTemperatureRequest{TargetTemperatureLevel: ptr(uint8(3))}, wantErr: datamodel.ErrConstraintError},
		{name: "target in level mode", cfg: level, req: SetTemperatureRequest{TargetTemperature: ptr(int16(0))}, wantErr: datamodel.ErrInvalidCommand},
		{name: "neither", cfg: number, req: SetTemperatureRequest{}, wantErr: datamodel.ErrInvalidCommand},
		{
			name:    "both",
			cfg:     level,
			req:     SetTemperatureRequest{TargetTemperature: ptr(int16(0)), TargetTemperatureLevel: ptr(uint8(0))},
			wantErr: datamodel.ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCluster(t, tt.cfg)
			v := c.DataVersion()

			err := setTemperature(c, &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SetTemperature() error = %v, want %v", err, tt.wantErr)
				}
				if c.DataVersion() != v {
					t.Errorf("rejected command moved DataVersion to %v", c.DataVersion())
				}
				return
			}
			if err != nil {
				t.Fatalf("SetTemperature() error = %v", err)
			}
			if c.TemperatureSetpoint() != tt.wantPoint {
				t.Errorf("TemperatureSetpoint() = %d, want %d", c.TemperatureSetpoint(), tt.wantPoint)
			}
			if c.SelectedTemperatureLevel() != tt.wantLevel {
				t.Errorf("SelectedTemperatureLevel() = %d, want %d", c.SelectedTemperatureLevel(), tt.wantLevel)
			}
		})
	}
}

func TestSetTemperature_Callback(t *testing.T) {
	var calls int
	c := newCluster(t, Config{
		OnSetTemperature: func(_ datamodel.EndpointID, setpoint int16, _ uint8) {
			calls++
			if setpoint != 400 {
				t.Errorf("callback setpoint = %d, want 400", setpoint)
			}
		},
	})

	for range 2 {
		if err := setTemperature(c, &SetTemperatureRequest{TargetTemperature: ptr(int16(400))}); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestSetLimits(t *testing.T) {
	c := newCluster(t, Config{})
	v := c.DataVersion()

	changed, err := c.SetLimits(-1000, 1000, 10)
	if err != nil || !changed {
		t.Fatalf("SetLimits() = (%v, %v), want (true, nil)", changed, err)
	}
	if c.DataVersion() != v+3 {
		t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), v+3)
	}
	if changed, _ := c.SetLimits(-1000, 1000, 10); changed {
		t.Error("SetLimits(same) = true")
	}
	if _, err := c.SetLimits(0, 0, -5); !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("SetLimits(step -5) error = %v, want ErrConstraintError", err)
	}
}

func TestSupportedLevels(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, Config{})

	if c.SetSupportedTemperatureLevels(Levels{}) {
		t.Error("SetSupportedTemperatureLevels(identical) = true")
	}
	if !c.SetSupportedTemperatureLevels(NewLevels("low", "high")) {
		t.Error("SetSupportedTemperatureLevels(new) = false")
	}

	data, err := datamodel.ReadAttributeData(ctx, c, AttrSupportedTemperatureLevels, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := data.Value.([]any)
	if len(got) != 2 || got[0] != "low" || got[1] != "high" {
		t.Errorf("SupportedTemperatureLevels = %v, want [low high]", data.Value)
	}
}

func TestFeatureMap(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want uint32
	}{
		{"default range", Config{}, FeatureTemperatureNumber},
		{"with step", Config{MinTemperature: ptr(int16(0)), MaxTemperature: ptr(int16(100)), Step: ptr(int16(5))}, FeatureTemperatureNumber | FeatureTemperatureStep},
		{"levels", Config{SupportedLevels: NewLevels("low", "high")}, FeatureTemperatureLevel},
		{"levels win over limits", Config{Step: ptr(int16(5)), SupportedLevels: NewLevels("low")}, FeatureTemperatureLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCluster(t, tt.cfg)
			features := c.FeatureMap()
			if features != tt.want {
				t.Errorf("FeatureMap() = %d, want %d", features, tt.want)
			}
			number := features&FeatureTemperatureNumber != 0
			level := features&FeatureTemperatureLevel != 0
			if number == level {
				t.Errorf("FeatureMap() = %d, want exactly one of number and level", features)
			}
		})
	}
	if Metadata.FeatureMap != 0 {
		t.Errorf("shared Metadata.FeatureMap = %d, want 0", Metadata.FeatureMap)
	}
}

func TestReadAttribute(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, Config{})

	for _, entry := range Metadata.AttributeList() {
		if _, err := datamodel.ReadAttributeData(ctx, c, entry.ID, nil); err != nil {
			t.Errorf("read 0x%04X error = %v", entry.ID, err)
		}
	}

	data, err := datamodel.ReadAttributeData(ctx, c, datamodel.GlobalAttrFeatureMap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if data.Value != uint64(FeatureTemperatureNumber) {
		t.Errorf("FeatureMap = %v, want %d", data.Value, FeatureTemperatureNumber)
	}

	data, err = datamodel.ReadAttributeData(ctx, c, AttrMinTemperature, nil)
	if err != nil {
		t.Fatal(err)
	}
	if data.Value != int64(math.MinInt16) {
		t.Errorf("MinTemperature = %v, want %d", data.Value, math.MinInt16)
	}

	if _, err := datamodel.ReadAttributeData(ctx, c, 0x0006, nil); !errors.Is(err, datamodel.ErrUnsupportedAttribute) {
		t.Errorf("read 0x0006 error = %v, want ErrUnsupportedAttribute", err)
	}
}
