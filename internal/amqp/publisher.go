package amqp

import (
	"context"
	"log/slog"

	"barbapro/internal/broadcast"
	"barbapro/internal/log"
)

// Publisher adapts a Client to the broadcast.Broadcaster interface.
// Broadcasting is fire-and-forget, so a failed publish is logged and
// swallowed; the mutation that triggered it already committed.
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(event broadcast.Event) {
	if err := p.client.PublishEvent(context.Background(), event); err != nil {
		slog.Error("Failed to publish event to AMQP",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldOperation, log.OpPublish,
			log.FieldEventKind, event.Kind,
			"error", err)
	}
}
