package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fieldstation/dsengine/internal/events"
	"go.uber.org/zap"
)

// MQTTSink publishes every event to a single MQTT topic, as an alternate
// Sink alongside RedisSink.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    *zap.Logger
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "dsengine_" + hex.EncodeToString(b)
}

// NewMQTTSink connects to brokerURL and prepares a topic publisher.
func NewMQTTSink(brokerURL, topic string, log *zap.Logger) (*MQTTSink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(generateClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt sink connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", token.Error())
	}
	if topic == "" {
		topic = "dsengine/events"
	}
	return &MQTTSink{client: client, topic: topic, qos: 0, log: log}, nil
}

// Publish sends one event to the configured topic, honoring ctx's
// deadline: it waits for the publish token only up to the deadline,
// treating a timeout as a dropped publish rather than a blocking one.
func (m *MQTTSink) Publish(ctx context.Context, rec events.Record) error {
	data, err := json.Marshal(struct {
		Kind    string `json:"kind"`
		Payload any    `json:"payload"`
	}{Kind: string(rec.Kind), Payload: rec.Payload})
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, data)
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-done:
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish timed out: %w", ctx.Err())
	}
}

// Close disconnects from the broker.
func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}
