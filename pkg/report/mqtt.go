package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// DefaultTopicPrefix is used when MQTTConfig.TopicPrefix is empty.
const DefaultTopicPrefix = "matter"

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("report: mqtt publish timeout")

// MQTTConfig configures an MQTTPublisher.
type MQTTConfig struct {
	// Broker URL, e.g. tcp://localhost:1883.
	Broker string

	// ClientID defaults to a random UUID.
	ClientID string

	Username string
	Password string

	// TopicPrefix defaults to DefaultTopicPrefix.
	TopicPrefix string

	// QoS for snapshot messages.
	QoS byte

	// Retained publishes snapshots as retained messages.
	Retained bool

	// ConnectTimeout defaults to 10s. PublishTimeout defaults to 5s.
	ConnectTimeout time.Duration
	PublishTimeout time.Duration

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

func (c *MQTTConfig) setDefaults() {
	if c.ClientID == "" {
		c.ClientID = "matter-appliance-" + uuid.NewString()
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
}

// MQTTPublisher publishes snapshots as JSON to
// <prefix>/<node>/<endpoint>/<cluster>, with the cluster ID in hex.
// Node state goes to <prefix>/<node>/state.
type MQTTPublisher struct {
	client pahomqtt.Client
	config MQTTConfig
	log    logging.LeveledLogger
}

// NewMQTTPublisher connects to the broker. The node ID is used for the
// last-will and state topics.
func NewMQTTPublisher(nodeID string, config MQTTConfig) (*MQTTPublisher, error) {
	config.setDefaults()
	m := &MQTTPublisher{config: config}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("mqtt")
	}

	stateTopic := StateTopic(config.TopicPrefix, nodeID)
	opts := pahomqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(stateTopic, "offline", 1, true).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			m.infof("connected to %s", config.Broker)
			c.Publish(stateTopic, 1, true, "online")
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			m.warnf("connection lost: %v", err)
		})
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(config.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", config.Broker, err)
	}
	m.client = client
	return m, nil
}

// newMQTTPublisherWithClient wraps an existing client.
func newMQTTPublisherWithClient(client pahomqtt.Client, config MQTTConfig) *MQTTPublisher {
	config.setDefaults()
	return &MQTTPublisher{client: client, config: config}
}

// SnapshotTopic returns the topic a snapshot is published on.
func SnapshotTopic(prefix string, s *Snapshot) string {
	return fmt.Sprintf("%s/%s/%d/%04x", prefix, s.NodeID, s.Endpoint, uint32(s.Cluster))
}

// StateTopic returns the online/offline topic of a node.
func StateTopic(prefix, nodeID string) string {
	return prefix + "/" + nodeID + "/state"
}

// Publish implements Publisher. It waits for the broker acknowledgement,
// bounded by ctx and PublishTimeout.
func (m *MQTTPublisher) Publish(ctx context.Context, s *Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot %v: %w", s, err)
	}
	topic := SnapshotTopic(m.config.TopicPrefix, s)
	token := m.client.Publish(topic, m.config.QoS, m.config.Retained, payload)

	timer := time.NewTimer(m.config.PublishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the node offline and disconnects.
func (m *MQTTPublisher) Close(nodeID string) {
	token := m.client.Publish(StateTopic(m.config.TopicPrefix, nodeID), 1, true, "offline")
	token.WaitTimeout(m.config.PublishTimeout)
	m.client.Disconnect(1000)
}

func (m *MQTTPublisher) infof(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Infof(format, args...)
	}
}

func (m *MQTTPublisher) warnf(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Warnf(format, args...)
	}
}
