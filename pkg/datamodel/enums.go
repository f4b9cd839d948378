// Package datamodel is the device-side data model engine shared by all
// cluster implementations.
//
// It owns the per-instance data version and change notifier, the
// compare-then-set attribute cells, the static cluster metadata, the
// two-tier attribute dispatch (global attributes first, then the
// cluster's own attributes), command dispatch gated by the accepted
// command list, and the version-filtered read/report gate.
//
// Spec References:
//   - Section 7.10.3: Data Version
//   - Section 7.12: Attribute
//   - Section 7.13: Global Elements
//   - Section 8.4.3.2: Data Version filtering
package datamodel

import "strings"

// Privilege defines access privilege levels.
// Spec: Section 7.6
type Privilege int

const (
	PrivilegeUnknown Privilege = iota
	PrivilegeView
	PrivilegeProxyView
	PrivilegeOperate
	PrivilegeManage
	PrivilegeAdminister
)

var privilegeNames = [...]string{"Unknown", "View", "ProxyView", "Operate", "Manage", "Administer"}

func (p Privilege) String() string {
	if p < 0 || int(p) >= len(privilegeNames) {
		return "Unknown"
	}
	return privilegeNames[p]
}

// IsValid returns true if the privilege is a defined value.
func (p Privilege) IsValid() bool {
	return p >= PrivilegeView && p <= PrivilegeAdminister
}

// AttributeQuality holds attribute quality flags.
// Spec: Section 7.7
type AttributeQuality uint32

const (
	// AttrQualityChangesOmitted (C) marks fast-changing data not reported.
	AttrQualityChangesOmitted AttributeQuality = 1 << iota

	// AttrQualityFixed (F) marks data that does not change at runtime.
	AttrQualityFixed

	// AttrQualityNonVolatile (N) marks data persisted across restarts.
	AttrQualityNonVolatile

	// AttrQualityReportable (P) marks data reported on change.
	AttrQualityReportable

	// AttrQualityQuieter (Q) marks data with reduced reporting.
	AttrQualityQuieter

	// AttrQualityNullable (X) marks a nullable data type.
	AttrQualityNullable

	// AttrQualityList marks a list-typed attribute.
	AttrQualityList
)

var attrQualityCodes = []struct {
	flag AttributeQuality
	code string
}{
	{AttrQualityChangesOmitted, "C"},
	{AttrQualityFixed, "F"},
	{AttrQualityNonVolatile, "N"},
	{AttrQualityReportable, "P"},
	{AttrQualityQuieter, "Q"},
	{AttrQualityNullable, "X"},
	{AttrQualityList, "[List]"},
}

// String renders the flags in canonical letter order, e.g. "NX".
func (q AttributeQuality) String() string {
	var b strings.Builder
	for _, c := range attrQualityCodes {
		if q&c.flag != 0 {
			b.WriteString(c.code)
		}
	}
	if b.Len() == 0 {
		return "None"
	}
	return b.String()
}

// CommandQuality holds command quality flags.
// Spec: Section 7.11
type CommandQuality uint32

const (
	// CmdQualityTimed indicates the command requires timed interaction (T quality).
	CmdQualityTimed CommandQuality = 1 << iota

	// CmdQualityLargeMessage indicates the command may exceed minimum MTU (L quality).
	CmdQualityLargeMessage
)

func (q CommandQuality) String() string {
	switch {
	case q == 0:
		return "None"
	case q == CmdQualityTimed:
		return "T"
	case q == CmdQualityLargeMessage:
		return "L"
	case q == CmdQualityTimed|CmdQualityLargeMessage:
		return "TL"
	}
	return "None"
}

// EndpointComposition defines endpoint composition patterns.
// Spec: Section 9.2.1
type EndpointComposition int

const (
	CompositionUnknown EndpointComposition = iota

	// CompositionTree is used for physical device composition, e.g. a
	// refrigerator with cabinet child endpoints.
	CompositionTree

	// CompositionFullFamily is a flat list of all descendant endpoints.
	CompositionFullFamily
)

func (c EndpointComposition) String() string {
	switch c {
	case CompositionTree:
		return "Tree"
	case CompositionFullFamily:
		return "FullFamily"
	default:
		return "Unknown"
	}
}
