package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// Defaults for the MQTT executor
const (
	DefaultMQTTBroker   = "tcp://localhost:1883"
	DefaultMQTTTopic    = "zwift/autoworkout/action"
	DefaultMQTTClientID = "zwift-autoworkout"
)

// publisher is the subset of mqtt.Client used to send actions
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each action as JSON for an external automation agent
type MQTT struct {
	client publisher
	topic  string
	logger *log.Logger
	now    func() time.Time
}

// NewMQTT connects to broker and returns the executor
func NewMQTT(broker, topic, clientID string, logger *log.Logger) (*MQTT, error) {
	if logger == nil {
		panic("MQTT: logger cannot be nil")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	logger.Printf("MQTT: connected to %s, publishing to %s", broker, topic)

	return newMQTT(client, topic, logger), nil
}

func newMQTT(client publisher, topic string, logger *log.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, logger: logger, now: time.Now}
}

// Execute publishes a at QoS 1 and waits for the broker acknowledgement
func (m *MQTT) Execute(ctx context.Context, a autoworkout.Action) error {
	payload, err := encodeMessage(NewMessage(a, m.now()))
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", a.Kind, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish %s: %w", a.Kind, ctx.Err())
	}
}

// Close disconnects from the broker
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
