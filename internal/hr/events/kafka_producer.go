// Package events publishes entity-change events to Kafka so
// downstream consumers (reporting, audit) can follow HR mutations
// without polling the store. Production is asynchronous and lossy
// under backpressure: a full queue drops the event with a warning
// rather than blocking the mutation path.
package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

// EventType names a mutation on one of the HR collections.
type EventType string

const (
	DepartmentCreated EventType = "department_created"
	DepartmentUpdated EventType = "department_updated"
	DepartmentDeleted EventType = "department_deleted"
	EmployeeCreated   EventType = "employee_created"
	EmployeeUpdated   EventType = "employee_updated"
	EmployeeDeleted   EventType = "employee_deleted"
	PayrollCreated    EventType = "payroll_created"
	PayrollUpdated    EventType = "payroll_updated"
	PayrollDeleted    EventType = "payroll_deleted"
	BenefitCreated    EventType = "benefit_created"
	BenefitUpdated    EventType = "benefit_updated"
	BenefitDeleted    EventType = "benefit_deleted"
	BenefitAssigned   EventType = "benefit_assigned"
	EnrollmentUpdated EventType = "enrollment_updated"
	EnrollmentEnded   EventType = "enrollment_ended"
	EnrollmentDeleted EventType = "enrollment_deleted"
)

// Event is one entity mutation. Payload carries the entity as stored
// after the mutation (nil for deletions).
type Event struct {
	Type    EventType
	ID      uuid.UUID
	Payload interface{}
}

// KafkaWriter abstracts the kafka-go writer for testing.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues events onto a background loop that writes them to
// Kafka.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewProducer creates the topic if missing and starts the event loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

// Produce enqueues an event without blocking; a full queue drops it.
func (p *Producer) Produce(eventType EventType, id uuid.UUID, payload interface{}) {
	select {
	case p.events <- Event{Type: eventType, ID: id, Payload: payload}:
	default:
		p.logger.Warn("producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("entity_id", id.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("entity_id", event.ID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.ID.String()),
		)
	}
}

// Close stops the event loop and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
