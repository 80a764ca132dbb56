package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
)

const exchangeType = "topic"

// SetupConn handles the connection and exchange declaration.
func SetupConn(url, exchange string, logger *zap.Logger) (*amqp.Connection, *amqp.Channel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var conn *amqp.Connection
	var err error

	// Simple retry logic for container startup.
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("failed to connect to rabbitmq", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,     // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return conn, ch, nil
}

// Publisher fans committed audit entries out to a topic exchange.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher creates a movement publisher bound to the given channel.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// PublishMovement publishes one committed mutation. The audit log remains
// the source of truth; consumers must tolerate missed events.
func (p *Publisher) PublishMovement(ctx context.Context, entry models.AuditEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("could not marshal audit entry: %w", err)
	}

	// Routing key: stock.<kind>.<productID> (e.g. stock.receipt.p1)
	routingKey := fmt.Sprintf("stock.%s.%s", strings.ToLower(string(entry.Kind)), strings.ToLower(entry.ProductID))

	return p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
