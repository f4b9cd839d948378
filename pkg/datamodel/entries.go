package datamodel

// AttributeEntry is the static descriptor of one attribute.
type AttributeEntry struct {
	ID      AttributeID
	Quality AttributeQuality

	// ReadPrivilege is nil for attributes that cannot be read.
	ReadPrivilege *Privilege

	// WritePrivilege is nil for attributes that cannot be written.
	WritePrivilege *Privilege
}

// IsReadable returns true if the attribute can be read.
func (a *AttributeEntry) IsReadable() bool {
	return a.ReadPrivilege != nil
}

// IsWritable returns true if the attribute can be written.
func (a *AttributeEntry) IsWritable() bool {
	return a.WritePrivilege != nil
}

// HasQuality returns true if the attribute has any of the given flags.
func (a *AttributeEntry) HasQuality(q AttributeQuality) bool {
	return a.Quality&q != 0
}

// IsNonVolatile returns true if the attribute value is persisted.
func (a *AttributeEntry) IsNonVolatile() bool {
	return a.HasQuality(AttrQualityNonVolatile)
}

// CommandEntry is the static descriptor of one accepted command.
type CommandEntry struct {
	ID              CommandID
	Quality         CommandQuality
	InvokePrivilege Privilege
}

// RequiresTimed returns true if this command requires timed interaction.
func (c *CommandEntry) RequiresTimed() bool {
	return c.Quality&CmdQualityTimed != 0
}

// EndpointEntry describes an endpoint.
type EndpointEntry struct {
	ID EndpointID

	// ParentID is nil for top-level endpoints.
	ParentID *EndpointID

	CompositionPattern EndpointComposition
}

// DeviceTypeEntry describes a device type present on an endpoint.
type DeviceTypeEntry struct {
	DeviceTypeID DeviceTypeID
	Revision     uint8
}

// NewReadOnlyAttribute creates a read-only attribute entry.
func NewReadOnlyAttribute(id AttributeID, quality AttributeQuality, readPriv Privilege) AttributeEntry {
	return AttributeEntry{
		ID:            id,
		Quality:       quality,
		ReadPrivilege: &readPriv,
	}
}

// NewReadWriteAttribute creates a read-write attribute entry.
func NewReadWriteAttribute(id AttributeID, quality AttributeQuality, readPriv, writePriv Privilege) AttributeEntry {
	return AttributeEntry{
		ID:             id,
		Quality:        quality,
		ReadPrivilege:  &readPriv,
		WritePrivilege: &writePriv,
	}
}

// NewCommandEntry creates a new command entry.
func NewCommandEntry(id CommandID, quality CommandQuality, invokePriv Privilege) CommandEntry {
	return CommandEntry{
		ID:              id,
		Quality:         quality,
		InvokePrivilege: invokePriv,
	}
}
