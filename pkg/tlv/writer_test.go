package tlv

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestWriter_Vectors(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer) error
		want  string
	}{
		{"bool false", func(w *Writer) error { return w.PutBool(Anonymous(), false) }, "08"},
		{"bool true", func(w *Writer) error { return w.PutBool(Anonymous(), true) }, "09"},
		{"int8 -1", func(w *Writer) error { return w.PutInt(Anonymous(), -1) }, "00ff"},
		{"int16 250", func(w *Writer) error { return w.PutInt(Anonymous(), 250) }, "01fa00"},
		{"int16 min", func(w *Writer) error { return w.PutInt(Anonymous(), -32768) }, "010080"},
		{"uint8 42", func(w *Writer) error { return w.PutUint(Anonymous(), 42) }, "042a"},
		{"uint16 300", func(w *Writer) error { return w.PutUint(Anonymous(), 300) }, "052c01"},
		{"uint32", func(w *Writer) error { return w.PutUint(Anonymous(), 0x10000) }, "0600000100"},
		{"context uint8", func(w *Writer) error { return w.PutUint(ContextTag(1), 5) }, "240105"},
		{"string", func(w *Writer) error { return w.PutString(Anonymous(), "Hello!") }, "0c0648656c6c6f21"},
		{"empty string", func(w *Writer) error { return w.PutString(Anonymous(), "") }, "0c00"},
		{"bytes", func(w *Writer) error { return w.PutBytes(Anonymous(), []byte{0, 1}) }, "10020001"},
		{"null", func(w *Writer) error { return w.PutNull(Anonymous()) }, "14"},
		{"common profile tag", func(w *Writer) error { return w.PutUint(CommonProfileTag(1), 1) }, "44010001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.write(NewWriter(&buf)); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if got := hex.EncodeToString(buf.Bytes()); got != tt.want {
				t.Errorf("encoded = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriter_Containers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.StartStructure(Anonymous()); err != nil {
		t.Fatal(err)
	}
	if err := w.StartArray(ContextTag(0)); err != nil {
		t.Fatal(err)
	}
	if w.ContainerDepth() != 2 {
		t.Errorf("ContainerDepth() = %d, want 2", w.ContainerDepth())
	}
	if err := w.PutUint(Anonymous(), 1); err != nil {
		t.Fatal(err)
	}
	if err := w.EndContainer(); err != nil {
		t.Fatal(err)
	}
	if err := w.EndContainer(); err != nil {
		t.Fatal(err)
	}

	want := "153600040118" + "18"
	if got := hex.EncodeToString(buf.Bytes()); got != want {
		t.Errorf("encoded = %s, want %s", got, want)
	}

	if err := w.EndContainer(); err != ErrNotInContainer {
		t.Errorf("EndContainer() on empty stack = %v, want ErrNotInContainer", err)
	}
}

func TestWriter_InvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).PutString(Anonymous(), string([]byte{0xff, 0xfe})); err != ErrInvalidUTF8 {
		t.Errorf("PutString() = %v, want ErrInvalidUTF8", err)
	}
}
