package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"kakebo/internal/core"
)

// NotificationEvent is the message published for every user notification so
// other processes (a desktop notifier, an audit log) can follow along.
type NotificationEvent struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Severity  core.Severity `json:"severity"`
	Table     string        `json:"table,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewNotificationEvent stamps n with a fresh id and the current time
func NewNotificationEvent(n core.Notification) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Title:     n.Title,
		Message:   n.Message,
		Severity:  n.Severity,
		Table:     n.Table,
		Timestamp: time.Now().UTC(),
	}
}

// Notification returns the user-facing part of the event
func (m *NotificationEvent) Notification() core.Notification {
	return core.Notification{
		Title:    m.Title,
		Message:  m.Message,
		Severity: m.Severity,
		Table:    m.Table,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationEventFromJSON creates a message from JSON bytes
func NotificationEventFromJSON(data []byte) (*NotificationEvent, error) {
	var msg NotificationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RoutingKey is the topic a notification of the given severity is sent to,
// e.g. "notification.error". Consumers bind "notification.#" for everything.
func RoutingKey(s core.Severity) string {
	if s == "" {
		s = core.SeverityInfo
	}
	return "notification." + string(s)
}
