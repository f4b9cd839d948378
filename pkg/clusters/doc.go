// Package clusters holds the helpers shared by the appliance cluster
// implementations.
//
// # Architecture
//
// Every cluster embeds *datamodel.ClusterBase, declares one package-level
// datamodel.ClusterMetadata and binds its attribute cells to the base's
// Dataver:
//
//	type Cluster struct {
//	    *datamodel.ClusterBase
//	    measuredValue datamodel.Cell[int16]
//	}
//
// ReadAttribute, WriteAttribute and InvokeCommand delegate to the base,
// which resolves global and undeclared IDs before calling the cluster's
// exhaustive switch.
//
// # Subpackages
//
//   - clusters/temperaturemeasurement: Temperature Measurement (0x0402)
//   - clusters/ovencavityopstate: Oven Cavity Operational State (0x0048)
//   - clusters/refrigeratormode: Refrigerator And Temperature Controlled Cabinet Mode (0x0052)
//   - clusters/temperaturecontrol: Temperature Control (0x0056)
//   - clusters/descriptor: Descriptor (0x001D)
//   - clusters/basic: Basic Information (0x0028)
//   - clusters/onoff: On/Off (0x0006)
//
// # Helpers
//
//   - Command TLV encoding/decoding (encoding.go)
//   - Persistence of non-volatile attributes (storage.go)
package clusters
