// matter-appliance-device runs a simulated kitchen appliance node: an oven
// cavity, a refrigerator cabinet and a temperature sensor.
//
// Non-volatile attributes and the latest snapshot of every cluster are kept
// in a bbolt file when a storage path is configured. Changed clusters are
// published to an MQTT broker when MQTT is enabled.
//
// Usage:
//
//	matter-appliance-device [options]
//
// Options:
//
//	-config    Config file, .yaml/.yml or .toml (default: built-in defaults)
//	-storage   Path for persistent storage (default: in-memory)
//	-node-id   Node identifier used in reports (default: random)
//	-log-level disabled, error, warn, info, debug or trace
//	-mqtt      MQTT broker URL, enables MQTT reporting
//	-simulate  Run the simulated temperature driver
//
// Example:
//
//	matter-appliance-device -config configs/appliance.yaml -mqtt tcp://localhost:1883
package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/backkem/matter-appliances/examples/appliance"
	"github.com/backkem/matter-appliances/examples/common"
	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/config"
	"github.com/backkem/matter-appliances/pkg/report"
	"github.com/backkem/matter-appliances/pkg/store"
)

func main() {
	// Parse command-line flags
	opts := common.ParseFlags()
	cfg, err := opts.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	lf := cfg.LoggerFactory()

	if err := run(cfg, lf); err != nil {
		log.Fatalf("Device error: %v", err)
	}
}

func run(cfg config.Config, lf logging.LoggerFactory) error {
	logger := lf.NewLogger("main")

	var storage clusters.Storage = clusters.NewMemoryStorage()
	var publishers report.MultiPublisher
	if cfg.Store.Path != "" {
		db, err := store.Open(store.Config{Path: cfg.Store.Path, LoggerFactory: lf})
		if err != nil {
			return err
		}
		defer db.Close()
		storage = db
		publishers = append(publishers, db)
	}

	device, err := appliance.NewDevice(cfg, storage, lf)
	if err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		mqtt, err := report.NewMQTTPublisher(cfg.NodeID, report.MQTTConfig{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			TopicPrefix:   cfg.MQTT.TopicPrefix,
			QoS:           cfg.MQTT.QoS,
			Retained:      cfg.MQTT.Retained,
			LoggerFactory: lf,
		})
		if err != nil {
			return err
		}
		defer mqtt.Close(cfg.NodeID)
		publishers = append(publishers, mqtt)
	}
	publishers = append(publishers, report.PublisherFunc(func(_ context.Context, s *report.Snapshot) error {
		logger.Debugf("report %s", s)
		return nil
	}))

	reporter, err := report.NewReporter(report.Config{
		Router:        device.Router,
		Publisher:     publishers,
		NodeID:        cfg.NodeID,
		Interval:      cfg.Report.Interval.Std(),
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}

	services := []common.Service{reporter}
	if cfg.Sensor.Simulate {
		services = append(services, appliance.NewSimulator(device, appliance.SimulatorConfig{
			Interval:      cfg.Sensor.Interval.Std(),
			LoggerFactory: lf,
		}))
	}

	logger.Infof("node %s ready with %d clusters on %d endpoints",
		cfg.NodeID, len(device.Clusters()), len(device.Node.GetEndpoints()))

	// Run the device (blocks until interrupted)
	return common.RunDevice(lf, services...)
}
