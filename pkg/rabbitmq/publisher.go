package rabbitmq

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// IPublisher interface defines the methods to publish a message
type IPublisher interface {
	PublishMessage(message interface{}) error
	PublishMessageQos(ctx context.Context, qos byte, retained bool, message interface{}) error
	Close()
}

// Publisher publishes on a single topic through a shared MQTT client
type Publisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, timeout: 5 * time.Second}
}

// PublishMessage publishes with QoS 0 (at most once)
func (p *Publisher) PublishMessage(message interface{}) error {
	return p.PublishMessageQos(context.Background(), 0, false, message)
}

// PublishMessageQos waits for the broker ack until ctx is done or the
// publisher timeout elapses, whichever comes first.
func (p *Publisher) PublishMessageQos(ctx context.Context, qos byte, retained bool, message interface{}) error {
	var payload []byte
	switch m := message.(type) {
	case string:
		payload = []byte(m)
	case []byte:
		payload = m
	default:
		return fmt.Errorf("invalid message format %T, expected string or []byte", message)
	}
	if p.client == nil {
		return fmt.Errorf("publish on %s: nil mqtt client", p.topic)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish on %s: %w", p.topic, err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	token := p.client.Publish(p.topic, qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish on %s: %w", p.topic, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("publish on %s: timeout after %s", p.topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Debug().Str("topic", p.topic).Int("bytes", len(payload)).Uint8("qos", qos).Msg("message published")
	return nil
}

// Close disconnects the shared client; call it only when the publisher owns it
func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}
