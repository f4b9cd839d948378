package datamodel

// OperationFlags contains common flags for data model operations.
type OperationFlags uint32

const (
	// OpFlagInternal marks an operation initiated by the node itself,
	// e.g. a report engine re-read.
	OpFlagInternal OperationFlags = 1 << iota
)

// Has returns true if the flags contain the specified flag(s).
func (f OperationFlags) Has(flag OperationFlags) bool {
	return f&flag != 0
}

// ReadAttributeRequest contains parameters for reading an attribute.
type ReadAttributeRequest struct {
	Path           ConcreteAttributePath
	OperationFlags OperationFlags

	// DataVersion is the requester's last known data version of the
	// cluster instance. When it equals the current version the read
	// is skipped and nothing is emitted.
	// nil means no filter.
	DataVersion *DataVersion
}

// IsInternal returns true if this is an internal operation.
func (r *ReadAttributeRequest) IsInternal() bool {
	return r.OperationFlags.Has(OpFlagInternal)
}

// WriteAttributeRequest contains parameters for writing an attribute.
type WriteAttributeRequest struct {
	Path           ConcreteAttributePath
	OperationFlags OperationFlags

	// DataVersion is the expected data version for optimistic locking.
	// nil means no version check.
	DataVersion *DataVersion
}

// InvokeRequest contains parameters for invoking a command.
type InvokeRequest struct {
	Path           ConcreteCommandPath
	OperationFlags OperationFlags
}
