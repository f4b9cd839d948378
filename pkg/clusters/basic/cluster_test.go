package basic

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
)

func newCluster(storage clusters.Storage) *Cluster {
	version := datamodel.DataVersion(10)
	info := DefaultDeviceInfo()
	info.SerialNumber = "SN-0001"
	info.UniqueID = "unique-1"
	return New(Config{EndpointID: 0, DeviceInfo: info, Storage: storage, DataVersion: &version})
}

func readValue(t *testing.T, c *Cluster, id datamodel.AttributeID) any {
	t.Helper()
	data, err := datamodel.ReadAttributeData(context.Background(), c, id, nil)
	if err != nil {
		t.Fatalf("read 0x%04X: %v", id, err)
	}
	if data == nil {
		t.Fatalf("read 0x%04X emitted nothing", id)
	}
	return data.Value
}

func writeReader(t *testing.T, put func(w *tlv.Writer) error) *tlv.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := put(tlv.NewWriter(&buf)); err != nil {
		t.Fatal(err)
	}
	return tlv.NewReader(&buf)
}

func TestReadAttributes(t *testing.T) {
	c := newCluster(nil)

	tests := []struct {
		id   datamodel.AttributeID
		want any
	}{
		{AttrDataModelRevision, uint64(18)},
		{AttrVendorName, "TEST_VENDOR"},
		{AttrVendorID, uint64(0xFFF1)},
		{AttrProductName, "Appliance"},
		{AttrProductID, uint64(0x8001)},
		{AttrNodeLabel, ""},
		{AttrLocation, "XX"},
		{AttrHardwareVersion, uint64(0)},
		{AttrSoftwareVersionStr, "1.0"},
		{AttrSerialNumber, "SN-0001"},
		{AttrLocalConfigDisabled, false},
		{AttrUniqueID, "unique-1"},
		{AttrSpecificationVersion, uint64(0x01040000)},
		{AttrMaxPathsPerInvoke, uint64(1)},
		{AttrConfigurationVersion, uint64(1)},
		{datamodel.GlobalAttrClusterRevision, uint64(ClusterRevision)},
	}
	for _, tt := range tests {
		if got := readValue(t, c, tt.id); got != tt.want {
			t.Errorf("attribute 0x%04X = %v (%T), want %v", tt.id, got, got, tt.want)
		}
	}
}

func TestReadCapabilityMinima(t *testing.T) {
	c := newCluster(nil)
	m, ok := readValue(t, c, AttrCapabilityMinima).(map[uint32]any)
	if !ok {
		t.Fatalf("CapabilityMinima is not a struct")
	}
	if m[0] != uint64(3) || m[1] != uint64(3) {
		t.Errorf("CapabilityMinima = %v, want {0: 3, 1: 3}", m)
	}
}

func TestReadUnsupported(t *testing.T) {
	c := newCluster(nil)
	_, err := datamodel.ReadAttributeData(context.Background(), c, 0x0011, nil)
	if !errors.Is(err, datamodel.ErrUnsupportedAttribute) {
		t.Errorf("read 0x0011 error = %v, want ErrUnsupportedAttribute", err)
	}
}

func TestWriteAttribute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		attr    datamodel.AttributeID
		put     func(w *tlv.Writer) error
		wantErr error
		check   func(c *Cluster) bool
	}{
		{
			name:  "node label",
			attr:  AttrNodeLabel,
			put:   func(w *tlv.Writer) error { return w.PutString(tlv.Anonymous(), "Kitchen oven") },
			check: func(c *Cluster) bool { return c.NodeLabel() == "Kitchen oven" },
		},
		{
			name:    "node label too long",
			attr:    AttrNodeLabel,
			put:     func(w *tlv.Writer) error { return w.PutString(tlv.Anonymous(), "0123456789abcdef0123456789abcdefX") },
			wantErr: datamodel.ErrConstraintError,
		},
		{
			name:  "location",
			attr:  AttrLocation,
			put:   func(w *tlv.Writer) error { return w.PutString(tlv.Anonymous(), "NL") },
			check: func(c *Cluster) bool { return c.Location() == "NL" },
		},
		{
			name:    "location wrong length",
			attr:    AttrLocation,
			put:     func(w *tlv.Writer) error { return w.PutString(tlv.Anonymous(), "NLD") },
			wantErr: datamodel.ErrConstraintError,
		},
		{
			name:  "local config disabled",
			attr:  AttrLocalConfigDisabled,
			put:   func(w *tlv.Writer) error { return w.PutBool(tlv.Anonymous(), true) },
			check: func(c *Cluster) bool { return c.LocalConfigDisabled() },
		},
		{
			name:    "read-only vendor name",
			attr:    AttrVendorName,
			put:     func(w *tlv.Writer) error { return w.PutString(tlv.Anonymous(), "x") },
			wantErr: datamodel.ErrUnsupportedWrite,
		},
		{
			name:    "unknown attribute",
			attr:    0x0011,
			put:     func(w *tlv.Writer) error { return w.PutBool(tlv.Anonymous(), true) },
			wantErr: datamodel.ErrUnsupportedAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCluster(nil)
			before := c.DataVersion()
			err := c.WriteAttribute(ctx, datamodel.WriteAttributeRequest{Path: c.AttributePath(tt.attr)}, writeReader(t, tt.put))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("WriteAttribute() error = %v, want %v", err, tt.wantErr)
				}
				if c.DataVersion() != before {
					t.Errorf("failed write changed DataVersion %v -> %v", before, c.DataVersion())
				}
				return
			}
			if err != nil {
				t.Fatalf("WriteAttribute() error = %v", err)
			}
			if !tt.check(c) {
				t.Error("written value not applied")
			}
			if c.DataVersion() != before+1 {
				t.Errorf("DataVersion() = %v, want %v", c.DataVersion(), before+1)
			}
		})
	}
}

func TestWriteAttribute_OversizedLength(t *testing.T) {
	c := newCluster(nil)
	v := c.DataVersion()

	// UTF-8 string with an 8-byte length of 2^63-1.
	payload := []byte{0x0f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	req := datamodel.WriteAttributeRequest{Path: c.AttributePath(AttrNodeLabel)}
	err := c.WriteAttribute(context.Background(), req, tlv.NewReader(bytes.NewReader(payload)))
	if !errors.Is(err, tlv.ErrLengthTooLarge) {
		t.Fatalf("WriteAttribute() error = %v, want tlv.ErrLengthTooLarge", err)
	}
	if c.NodeLabel() != "" || c.DataVersion() != v {
		t.Errorf("rejected write changed state: label %q, version %v", c.NodeLabel(), c.DataVersion())
	}
}

func TestSetNodeLabel_Idempotent(t *testing.T) {
	c := newCluster(nil)
	if changed, err := c.SetNodeLabel("a"); !changed || err != nil {
		t.Fatalf("SetNodeLabel() = (%v, %v)", changed, err)
	}
	v := c.DataVersion()
	if changed, _ := c.SetNodeLabel("a"); changed {
		t.Error("SetNodeLabel() with same value reported a change")
	}
	if c.DataVersion() != v {
		t.Errorf("DataVersion() moved on a no-op set")
	}
}

func TestPersistence(t *testing.T) {
	storage := clusters.NewMemoryStorage()
	c := newCluster(storage)
	if _, err := c.SetNodeLabel("Fridge"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetLocation("DE"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetLocalConfigDisabled(true); err != nil {
		t.Fatal(err)
	}
	if v, err := c.IncrementConfigurationVersion(); err != nil || v != 2 {
		t.Fatalf("IncrementConfigurationVersion() = (%d, %v), want 2", v, err)
	}

	restored := newCluster(storage)
	if restored.NodeLabel() != "Fridge" {
		t.Errorf("NodeLabel() = %q, want Fridge", restored.NodeLabel())
	}
	if restored.Location() != "DE" {
		t.Errorf("Location() = %q, want DE", restored.Location())
	}
	if !restored.LocalConfigDisabled() {
		t.Error("LocalConfigDisabled() = false, want true")
	}
	if restored.ConfigurationVersion() != 2 {
		t.Errorf("ConfigurationVersion() = %d, want 2", restored.ConfigurationVersion())
	}
	if restored.DataVersion() != 10 {
		t.Errorf("restoring bumped DataVersion to %v", restored.DataVersion())
	}
}

func TestNoCommands(t *testing.T) {
	c := newCluster(nil)
	_, err := c.InvokeCommand(context.Background(), datamodel.InvokeRequest{Path: c.CommandPath(0)}, nil)
	if !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("InvokeCommand() error = %v, want ErrUnsupportedCommand", err)
	}
}
