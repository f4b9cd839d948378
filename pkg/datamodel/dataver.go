package datamodel

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// ChangeNotifier is a coalescing single-slot change signal. Any number of
// Raise calls between two Consume calls collapse into one pending change.
type ChangeNotifier struct {
	pending atomic.Bool
}

// Raise marks a change as pending.
func (n *ChangeNotifier) Raise() {
	n.pending.Store(true)
}

// Consume returns whether a change was pending and clears it.
func (n *ChangeNotifier) Consume() bool {
	return n.pending.Swap(false)
}

// Pending reports whether a change is pending without clearing it.
func (n *ChangeNotifier) Pending() bool {
	return n.pending.Load()
}

// Dataver owns the data version of one cluster instance together with its
// change notifier. The version only moves forward, by exactly one per
// effective attribute change.
// Spec: Section 7.10.3
type Dataver struct {
	version  atomic.Uint32
	notifier ChangeNotifier
}

// NewDataver creates a Dataver starting at initial.
func NewDataver(initial DataVersion) *Dataver {
	d := &Dataver{}
	d.version.Store(uint32(initial))
	return d
}

// NewRandomDataver creates a Dataver starting at a random version.
func NewRandomDataver() *Dataver {
	return NewDataver(randomDataVersion())
}

// Get returns the current version.
func (d *Dataver) Get() DataVersion {
	return DataVersion(d.version.Load())
}

// Changed records one effective change: the version is incremented and
// the notifier raised. It returns the new version.
func (d *Dataver) Changed() DataVersion {
	v := d.version.Add(1)
	d.notifier.Raise()
	return DataVersion(v)
}

// ConsumeChange returns whether any change happened since the last call.
func (d *Dataver) ConsumeChange() bool {
	return d.notifier.Consume()
}

// Notifier exposes the change notifier.
func (d *Dataver) Notifier() *ChangeNotifier {
	return &d.notifier
}

func randomDataVersion() DataVersion {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return DataVersion(binary.LittleEndian.Uint32(buf[:]))
}
