// Package events publishes clinic domain events such as appointment
// bookings and verified registrations.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinic-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	AppointmentCreated   = "appointment.created"
	AppointmentUpdated   = "appointment.updated"
	AppointmentDeleted   = "appointment.deleted"
	RegistrationVerified = "registration.verified"
	TestCompleted        = "test.completed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}

// Default is used by the handlers; it discards events until replaced.
var Default Publisher = Nop{}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }

// KafkaPublisher writes events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	source string
}

func NewKafkaPublisher(brokers []string, topic, source string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, source: source}
}

func NewEvent(eventType, source string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event := NewEvent(eventType, p.source, data)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(p.source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", eventType, err)
	}

	logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.writer.Topic,
	}).Debug("event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Emit publishes through Default and only logs failures; a broker outage
// must not fail the request that produced the event.
func Emit(ctx context.Context, eventType string, data interface{}) {
	if err := Default.Publish(ctx, eventType, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish event")
	}
}
