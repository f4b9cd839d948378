package datamodel

import "slices"

// Cell holds one attribute value bound to its cluster's Dataver.
// Set compares before storing: writing an equal value is a no-op, a
// different value bumps the version and raises the change notifier.
//
// Cells are not synchronized; a cluster instance has a single writer.
type Cell[T comparable] struct {
	dv    *Dataver
	value T
}

// NewCell creates a cell with an initial value.
func NewCell[T comparable](dv *Dataver, initial T) Cell[T] {
	return Cell[T]{dv: dv, value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and reports whether the value changed.
func (c *Cell[T]) Set(v T) bool {
	if c.value == v {
		return false
	}
	c.value = v
	c.dv.Changed()
	return true
}

// ListCell is a Cell for list values. Values are copied in and out.
type ListCell[T any] struct {
	dv    *Dataver
	value []T
	eq    func(a, b T) bool
}

// NewListCell creates a list cell. eq compares two elements.
func NewListCell[T any](dv *Dataver, initial []T, eq func(a, b T) bool) ListCell[T] {
	return ListCell[T]{dv: dv, value: slices.Clone(initial), eq: eq}
}

// NewComparableListCell creates a list cell for comparable element types.
func NewComparableListCell[T comparable](dv *Dataver, initial []T) ListCell[T] {
	return NewListCell(dv, initial, func(a, b T) bool { return a == b })
}

// Get returns a copy of the current list.
func (c *ListCell[T]) Get() []T {
	return slices.Clone(c.value)
}

// Len returns the number of elements.
func (c *ListCell[T]) Len() int {
	return len(c.value)
}

// Set stores v and reports whether the list changed.
func (c *ListCell[T]) Set(v []T) bool {
	if slices.EqualFunc(c.value, v, c.eq) {
		return false
	}
	c.value = slices.Clone(v)
	c.dv.Changed()
	return true
}
