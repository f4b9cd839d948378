package datamodel

import "errors"

// Errors returned by datamodel operations.
var (
	// ErrEndpointNotFound indicates the requested endpoint does not exist.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrEndpointExists indicates an endpoint with the same ID already exists.
	ErrEndpointExists = errors.New("endpoint already exists")

	// ErrClusterNotFound indicates the requested cluster does not exist.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrClusterExists indicates a cluster with the same ID already exists.
	ErrClusterExists = errors.New("cluster already exists")

	// ErrUnsupportedAttribute indicates the attribute ID is neither a global
	// attribute nor declared by the cluster.
	ErrUnsupportedAttribute = errors.New("unsupported attribute")

	// ErrUnsupportedWrite indicates the attribute does not support writes.
	ErrUnsupportedWrite = errors.New("unsupported write")

	// ErrUnsupportedCommand indicates the command ID is not in the cluster's
	// accepted command list.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrEncodingFailure wraps errors raised by the wire codec while
	// serializing a value.
	ErrEncodingFailure = errors.New("encoding failure")

	// ErrInternalInconsistency indicates metadata and cluster code disagree,
	// e.g. a declared attribute with no cell behind it.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrInvalidDataVersion indicates a data version mismatch on write.
	ErrInvalidDataVersion = errors.New("data version mismatch")

	// ErrConstraintError indicates a value outside its allowed range.
	ErrConstraintError = errors.New("constraint error")

	// ErrInvalidCommand indicates a malformed command payload.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidInState indicates the operation is invalid in the current state.
	ErrInvalidInState = errors.New("invalid in current state")

	// ErrAlreadyCompleted indicates a write completed the writer twice.
	ErrAlreadyCompleted = errors.New("attribute data already completed")
)
