// Package events publishes workout lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/workoutkit/internal/workout"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives workout events when the config names none.
const DefaultTopic = "workout_events"

// TypeWorkoutRecorded is the event_type header of WorkoutRecorded messages.
const TypeWorkoutRecorded = "workout.recorded"

// Publisher announces stored workouts.
type Publisher interface {
	WorkoutRecorded(ctx context.Context, rec workout.Record) error
	Close() error
}

// WorkoutRecorded is the message body for TypeWorkoutRecorded.
type WorkoutRecorded struct {
	WorkoutID             string     `json:"workout_id"`
	ActivityType          string     `json:"activity_type"`
	DataOrigin            string     `json:"data_origin"`
	StartTime             time.Time  `json:"start_time"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	ActiveDurationSeconds float64    `json:"active_duration_seconds"`
	PausedDurationSeconds float64    `json:"paused_duration_seconds"`
	PauseCount            int        `json:"pause_count"`
	RecordedAt            time.Time  `json:"recorded_at"`
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic.
type KafkaPublisher struct {
	writer MessageWriter
	log    *slog.Logger
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return NewPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}, log)
}

// NewPublisher wraps an existing writer.
func NewPublisher(w MessageWriter, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log, now: time.Now}
}

// WorkoutRecorded publishes rec keyed by its ID so events for one workout
// stay on one partition.
func (p *KafkaPublisher) WorkoutRecorded(ctx context.Context, rec workout.Record) error {
	body, err := json.Marshal(WorkoutRecorded{
		WorkoutID:             rec.ID,
		ActivityType:          rec.ActivityType.String(),
		DataOrigin:            rec.DataOrigin,
		StartTime:             rec.StartTime,
		EndTime:               rec.EndTime,
		ActiveDurationSeconds: rec.ActiveDurationSeconds,
		PausedDurationSeconds: rec.PausedDurationSeconds,
		PauseCount:            rec.PauseCount,
		RecordedAt:            p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeWorkoutRecorded)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s for %s: %w", TypeWorkoutRecorded, rec.ID, err)
	}
	p.log.Debug("event published", "type", TypeWorkoutRecorded, "id", rec.ID)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) WorkoutRecorded(context.Context, workout.Record) error { return nil }
func (Nop) Close() error                                          { return nil }
