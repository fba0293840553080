package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const DefaultTopic = "skud.notifications.v1"

// MessageWriter is the part of *kafkago.Writer the destination uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type KafkaDestination struct {
	writer MessageWriter
	topic  string
}

func NewKafkaDestination(writer MessageWriter, topic string) *KafkaDestination {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaDestination{writer: writer, topic: topic}
}

type kafkaPayload struct {
	Kind       Kind      `json:"kind"`
	Audience   Audience  `json:"audience"`
	Text       string    `json:"text"`
	EmployeeID int64     `json:"employee_id,omitempty"`
	SourceAddr string    `json:"source_addr,omitempty"`
	At         time.Time `json:"at"`
}

func (d *KafkaDestination) Name() string { return "kafka" }

// Send publishes msg keyed by employee so one employee's alerts stay ordered
// within a partition.
func (d *KafkaDestination) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(kafkaPayload{
		Kind:       msg.Kind,
		Audience:   msg.Audience,
		Text:       msg.Text,
		EmployeeID: msg.EmployeeID,
		SourceAddr: msg.SourceAddr,
		At:         msg.At,
	})
	if err != nil {
		return err
	}

	key := msg.SourceAddr
	if msg.EmployeeID > 0 {
		key = strconv.FormatInt(msg.EmployeeID, 10)
	}

	return d.writer.WriteMessages(ctx, kafkago.Message{
		Topic: d.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(msg.Kind)},
			{Key: "audience", Value: []byte(msg.Audience)},
		},
	})
}
