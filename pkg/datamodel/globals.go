package datamodel

// Global attribute IDs present on every cluster instance.
// Spec: Section 7.13, Table 93
const (
	GlobalAttrClusterRevision      AttributeID = 0xFFFD
	GlobalAttrFeatureMap           AttributeID = 0xFFFC
	GlobalAttrAttributeList        AttributeID = 0xFFFB
	GlobalAttrEventList            AttributeID = 0xFFFA // deprecated, never served
	GlobalAttrAcceptedCommandList  AttributeID = 0xFFF9
	GlobalAttrGeneratedCommandList AttributeID = 0xFFF8
)

// IsGlobalAttribute returns true if the ID falls in the global attribute range.
func IsGlobalAttribute(id AttributeID) bool {
	return id >= GlobalAttrGeneratedCommandList && id <= GlobalAttrClusterRevision
}

// GlobalAttributeEntries returns the global attributes served by every
// cluster instance.
func GlobalAttributeEntries() []AttributeEntry {
	return []AttributeEntry{
		NewReadOnlyAttribute(GlobalAttrClusterRevision, AttrQualityFixed, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrFeatureMap, AttrQualityFixed, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrAttributeList, AttrQualityFixed|AttrQualityList, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrAcceptedCommandList, AttrQualityFixed|AttrQualityList, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrGeneratedCommandList, AttrQualityFixed|AttrQualityList, PrivilegeView),
	}
}

// EndpointRoot is the root endpoint.
const EndpointRoot EndpointID = 0

// Appliance cluster IDs.
const (
	ClusterOvenCavityOperationalState ClusterID = 0x0048
	ClusterRefrigeratorMode           ClusterID = 0x0052
	ClusterTemperatureControl         ClusterID = 0x0056
	ClusterTemperatureMeasurement     ClusterID = 0x0402
)

// Appliance device type IDs.
const (
	DeviceTypeRootNode                     DeviceTypeID = 0x0016
	DeviceTypeRefrigerator                 DeviceTypeID = 0x0070
	DeviceTypeTemperatureControlledCabinet DeviceTypeID = 0x0071
	DeviceTypeOven                         DeviceTypeID = 0x007B
	DeviceTypeOnOffLight                   DeviceTypeID = 0x0100
	DeviceTypeTemperatureSensor            DeviceTypeID = 0x0302
)
