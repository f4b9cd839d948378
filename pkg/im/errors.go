package im

import (
	"errors"

	"github.com/backkem/matter-appliances/pkg/datamodel"
)

// statusMap is checked in order; the first matching error wins. Encoding
// failures and internal inconsistencies fall through to StatusFailure.
var statusMap = []struct {
	err    error
	status Status
}{
	{datamodel.ErrEndpointNotFound, StatusUnsupportedEndpoint},
	{datamodel.ErrClusterNotFound, StatusUnsupportedCluster},
	{datamodel.ErrInternalInconsistency, StatusFailure},
	{datamodel.ErrEncodingFailure, StatusFailure},
	{datamodel.ErrUnsupportedAttribute, StatusUnsupportedAttribute},
	{datamodel.ErrUnsupportedCommand, StatusUnsupportedCommand},
	{datamodel.ErrUnsupportedWrite, StatusUnsupportedWrite},
	{datamodel.ErrConstraintError, StatusConstraintError},
	{datamodel.ErrInvalidCommand, StatusInvalidCommand},
	{datamodel.ErrInvalidInState, StatusInvalidInState},
	{datamodel.ErrInvalidDataVersion, StatusDataVersionMismatch},
}

// ErrorToStatus maps an error to an IM status code.
func ErrorToStatus(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	for _, m := range statusMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return StatusFailure
}

// StatusToError maps an IM status code back to a data model error.
func StatusToError(status Status) error {
	if status == StatusSuccess {
		return nil
	}
	for _, m := range statusMap {
		if m.status == status && m.status != StatusFailure {
			return m.err
		}
	}
	return errors.New("im: " + status.String())
}
