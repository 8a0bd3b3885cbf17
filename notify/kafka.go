// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// envelope is the wire record: recipient plus notification.
type envelope struct {
	UserID       string       `json:"user_id"`
	Notification Notification `json:"notification"`
}

// KafkaNotifier publishes notifications to a Kafka topic. The message
// key is the recipient, so all notifications for one user land in the
// same partition and stay ordered.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *KafkaNotifier) Send(ctx context.Context, userID string, n Notification) error {
	data, err := json.Marshal(envelope{UserID: userID, Notification: n})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID),
		Value: data,
		Time:  n.Timestamp,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
