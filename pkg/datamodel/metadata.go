package datamodel

import (
	"fmt"

	"github.com/backkem/matter-appliances/pkg/tlv"
)

// ClusterMetadata is the static description of a cluster type. Each
// cluster package declares one package-level value; instances share it.
type ClusterMetadata struct {
	ID         ClusterID
	Revision   uint16
	FeatureMap uint32

	// Attributes lists the cluster-specific attributes. Global attributes
	// are implied and must not be listed.
	Attributes []AttributeEntry

	// AcceptedCommands lists the commands the server accepts.
	AcceptedCommands []CommandEntry

	// GeneratedCommands lists the response commands the server emits.
	GeneratedCommands []CommandID
}

// Validate checks the metadata for duplicate IDs and attributes that
// collide with the global range.
func (m *ClusterMetadata) Validate() error {
	seen := make(map[AttributeID]bool, len(m.Attributes))
	for _, a := range m.Attributes {
		if IsGlobalAttribute(a.ID) {
			return fmt.Errorf("%w: cluster 0x%04X declares global attribute 0x%04X", ErrInternalInconsistency, m.ID, a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: cluster 0x%04X declares attribute 0x%04X twice", ErrInternalInconsistency, m.ID, a.ID)
		}
		seen[a.ID] = true
	}
	cmds := make(map[CommandID]bool, len(m.AcceptedCommands))
	for _, c := range m.AcceptedCommands {
		if cmds[c.ID] {
			return fmt.Errorf("%w: cluster 0x%04X accepts command 0x%02X twice", ErrInternalInconsistency, m.ID, c.ID)
		}
		cmds[c.ID] = true
	}
	return nil
}

// AttributeList returns the cluster attributes followed by the globals.
func (m *ClusterMetadata) AttributeList() []AttributeEntry {
	globals := GlobalAttributeEntries()
	result := make([]AttributeEntry, 0, len(m.Attributes)+len(globals))
	result = append(result, m.Attributes...)
	return append(result, globals...)
}

// Attribute looks up a cluster-specific attribute.
func (m *ClusterMetadata) Attribute(id AttributeID) (AttributeEntry, bool) {
	for _, a := range m.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return AttributeEntry{}, false
}

// HasAttribute reports whether id is served, globals included.
func (m *ClusterMetadata) HasAttribute(id AttributeID) bool {
	if isServedGlobal(id) {
		return true
	}
	_, ok := m.Attribute(id)
	return ok
}

// AcceptsCommand reports whether id is in the accepted command list.
func (m *ClusterMetadata) AcceptsCommand(id CommandID) bool {
	for _, c := range m.AcceptedCommands {
		if c.ID == id {
			return true
		}
	}
	return false
}

// GeneratesCommand reports whether id is in the generated command list.
func (m *ClusterMetadata) GeneratesCommand(id CommandID) bool {
	for _, c := range m.GeneratedCommands {
		if c == id {
			return true
		}
	}
	return false
}

// ReadGlobal encodes a global attribute. It returns false when id is not a
// served global attribute.
func (m *ClusterMetadata) ReadGlobal(id AttributeID, w *tlv.Writer, tag tlv.Tag) (bool, error) {
	switch id {
	case GlobalAttrClusterRevision:
		return true, w.PutUint(tag, uint64(m.Revision))
	case GlobalAttrFeatureMap:
		return true, w.PutUint(tag, uint64(m.FeatureMap))
	case GlobalAttrAttributeList:
		ids := make([]uint64, 0, len(m.Attributes)+5)
		for _, a := range m.AttributeList() {
			ids = append(ids, uint64(a.ID))
		}
		return true, putUintArray(w, tag, ids)
	case GlobalAttrAcceptedCommandList:
		ids := make([]uint64, 0, len(m.AcceptedCommands))
		for _, c := range m.AcceptedCommands {
			ids = append(ids, uint64(c.ID))
		}
		return true, putUintArray(w, tag, ids)
	case GlobalAttrGeneratedCommandList:
		ids := make([]uint64, 0, len(m.GeneratedCommands))
		for _, c := range m.GeneratedCommands {
			ids = append(ids, uint64(c))
		}
		return true, putUintArray(w, tag, ids)
	default:
		return false, nil
	}
}

func isServedGlobal(id AttributeID) bool {
	switch id {
	case GlobalAttrClusterRevision, GlobalAttrFeatureMap, GlobalAttrAttributeList,
		GlobalAttrAcceptedCommandList, GlobalAttrGeneratedCommandList:
		return true
	}
	return false
}

func putUintArray(w *tlv.Writer, tag tlv.Tag, vals []uint64) error {
	if err := w.StartArray(tag); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.PutUint(tlv.Anonymous(), v); err != nil {
			return err
		}
	}
	return w.EndContainer()
}
