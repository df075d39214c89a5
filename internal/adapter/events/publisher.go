// internal/adapter/events/publisher.go

package events

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"tweetscope/internal/service/pipeline"
)

// bus is the part of a NATS connection the publisher needs
type bus interface {
	Publish(subject string, data []byte) error
}

// Publisher forwards run events to NATS on <topic>.<state>
type Publisher struct {
	bus    bus
	topic  string
	logger *log.Logger
}

// NewPublisher creates a publisher on an open NATS connection
func NewPublisher(nc *nats.Conn, topic string, logger *log.Logger) *Publisher {
	return newPublisher(nc, topic, logger)
}

func newPublisher(b bus, topic string, logger *log.Logger) *Publisher {
	return &Publisher{
		bus:    b,
		topic:  topic,
		logger: logger,
	}
}

// Subject returns the subject an event of state s is published on
func (p *Publisher) Subject(s pipeline.State) string {
	return fmt.Sprintf("%s.%s", p.topic, s)
}

// Publish serializes and sends one event. It matches the runner's event handler signature.
func (p *Publisher) Publish(e pipeline.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	subject := p.Subject(e.State)
	if err := p.bus.Publish(subject, data); err != nil {
		return fmt.Errorf("error publishing to %s: %w", subject, err)
	}

	if e.State.Terminal() {
		p.logger.Debug("published terminal event", "subject", subject, "run", e.RunID)
	}
	return nil
}
