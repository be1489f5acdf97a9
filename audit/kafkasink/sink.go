// Package kafkasink streams roleverify audit events to a Kafka topic as JSON.
package kafkasink

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrNoBrokers is returned by New without a broker or topic.
var ErrNoBrokers = errors.New("kafkasink: brokers and topic are required")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink implements roleverify.AuditSink. Messages are keyed by user id so one
// user's events stay ordered within a partition.
type Sink struct {
	writer messageWriter
	logger *zap.Logger
}

// New returns a Sink writing to topic on brokers. Call Close on shutdown.
func New(brokers []string, topic string, logger *zap.Logger) (*Sink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, ErrNoBrokers
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newSink(writer, logger), nil
}

func newSink(w messageWriter, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{writer: w, logger: logger.Named("kafkasink")}
}

// Emit writes one message per event. Failures are logged and dropped; the
// dispatcher bounds ctx.
func (s *Sink) Emit(ctx context.Context, event roleverify.AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("audit event encode failed", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Warn("audit event write failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

// Close flushes pending writes and closes the writer.
func (s *Sink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
