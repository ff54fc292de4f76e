// Package events publishes security events (logins, token reuse, mass
// revocations, permission changes) to Kafka. Publishing is best-effort:
// the auth flow never fails because the broker is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/titanaprilian/authguard/pkg/logging"
)

const (
	TypeLogin           = "user_logged_in"
	TypeRegistered      = "user_registered"
	TypeTokenRefreshed  = "token_refreshed"
	TypeReuseDetected   = "refresh_reuse_detected"
	TypeLogout          = "user_logged_out"
	TypeLogoutAll       = "user_logged_out_all"
	TypePasswordChanged = "password_changed"
	TypeRoleChanged     = "role_changed"
	TypeFeatureChanged  = "feature_changed"
)

type Event struct {
	Type   string    `json:"type"`
	UserID uint      `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Entity string    `json:"entity,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish sends one event. A nil producer is a no-op so callers can run
// without Kafka configured.
func (p *Producer) Publish(ctx context.Context, e Event) error {
	if p == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: marshal failed: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Type),
		Value: data,
	})
}

// Emit publishes and logs the failure instead of returning it.
func (p *Producer) Emit(ctx context.Context, e Event) {
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "type", e.Type, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
