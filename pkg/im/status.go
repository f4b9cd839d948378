// Package im maps data model outcomes onto Interaction Model status codes
// and provides a status-returning facade over a datamodel.Router.
package im

import "fmt"

// Status represents an Interaction Model status code.
// Spec: Section 8.10, Table 8-36
type Status uint8

const (
	StatusSuccess              Status = 0x00
	StatusFailure              Status = 0x01
	StatusUnsupportedEndpoint  Status = 0x7f
	StatusInvalidAction        Status = 0x80
	StatusUnsupportedCommand   Status = 0x81
	StatusInvalidCommand       Status = 0x85
	StatusUnsupportedAttribute Status = 0x86
	StatusConstraintError      Status = 0x87
	StatusUnsupportedWrite     Status = 0x88
	StatusInvalidDataType      Status = 0x8d
	StatusDataVersionMismatch  Status = 0x92
	StatusUnsupportedCluster   Status = 0xc3
	StatusInvalidInState       Status = 0xcb
)

var statusNames = map[Status]string{
	StatusSuccess:              "Success",
	StatusFailure:              "Failure",
	StatusUnsupportedEndpoint:  "UnsupportedEndpoint",
	StatusInvalidAction:        "InvalidAction",
	StatusUnsupportedCommand:   "UnsupportedCommand",
	StatusInvalidCommand:       "InvalidCommand",
	StatusUnsupportedAttribute: "UnsupportedAttribute",
	StatusConstraintError:      "ConstraintError",
	StatusUnsupportedWrite:     "UnsupportedWrite",
	StatusInvalidDataType:      "InvalidDataType",
	StatusDataVersionMismatch:  "DataVersionMismatch",
	StatusUnsupportedCluster:   "UnsupportedCluster",
	StatusInvalidInState:       "InvalidInState",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(0x%02x)", uint8(s))
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
