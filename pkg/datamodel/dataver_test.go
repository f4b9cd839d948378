package datamodel

import "testing"

func TestDataver_ChangedIncrementsByOne(t *testing.T) {
	dv := NewDataver(41)

	if got := dv.Changed(); got != 42 {
		t.Errorf("Changed() = %v, want 42", got)
	}
	if dv.Get() != 42 {
		t.Errorf("Get() = %v, want 42", dv.Get())
	}
}

func TestDataver_Wraps(t *testing.T) {
	dv := NewDataver(0xFFFFFFFF)
	if got := dv.Changed(); got != 0 {
		t.Errorf("Changed() = %v, want 0", got)
	}
}

func TestChangeNotifier_Coalesces(t *testing.T) {
	var n ChangeNotifier

	if n.Consume() {
		t.Fatal("Consume() on fresh notifier = true, want false")
	}

	n.Raise()
	n.Raise()
	n.Raise()

	if !n.Pending() {
		t.Error("Pending() = false after Raise")
	}
	if !n.Consume() {
		t.Error("first Consume() = false, want true")
	}
	if n.Consume() {
		t.Error("second Consume() = true, want false")
	}
}

func TestDataver_ConsumeChange(t *testing.T) {
	dv := NewDataver(1)

	if dv.ConsumeChange() {
		t.Error("ConsumeChange() before any change = true")
	}

	dv.Changed()
	dv.Changed()

	if !dv.ConsumeChange() {
		t.Error("ConsumeChange() after changes = false")
	}
	if dv.ConsumeChange() {
		t.Error("ConsumeChange() second call = true")
	}
	if dv.Get() != 3 {
		t.Errorf("Get() = %v, want 3", dv.Get())
	}
}
