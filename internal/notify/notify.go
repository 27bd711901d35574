// Package notify delivers table notifications to the user and to any
// interested process on the message bus.
package notify

import (
	"context"
	"sync"

	"kakebo/internal/core"
	applog "kakebo/internal/log"
)

// LogNotifier writes notifications to the structured log, picking the level
// from the severity.
type LogNotifier struct {
	logger *applog.Logger
}

func NewLogNotifier(logger *applog.Logger) *LogNotifier {
	return &LogNotifier{logger: applog.OrDiscard(logger).WithComponent(applog.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, note core.Notification) {
	args := []any{
		"title", note.Title,
		applog.FieldSeverity, string(note.Severity),
	}
	if note.Table != "" {
		args = append(args, applog.FieldTableID, note.Table)
	}
	switch note.Severity {
	case core.SeverityError:
		n.logger.ErrorContext(ctx, note.Message, args...)
	case core.SeverityWarning:
		n.logger.WarnContext(ctx, note.Message, args...)
	default:
		n.logger.InfoContext(ctx, note.Message, args...)
	}
}

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}

// AMQPNotifier forwards notifications to the message bus. Publish failures
// are logged and never reach the caller.
type AMQPNotifier struct {
	publisher EventPublisher
	logger    *applog.Logger
}

func NewAMQPNotifier(publisher EventPublisher, logger *applog.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		publisher: publisher,
		logger:    applog.OrDiscard(logger).WithComponent(applog.ComponentNotify),
	}
}

func (n *AMQPNotifier) Notify(ctx context.Context, note core.Notification) {
	// a cancelled caller must not suppress the event
	ctx = context.WithoutCancel(ctx)
	if err := n.publisher.PublishNotification(ctx, note); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish notification",
			applog.NewFields().
				WithOperation(applog.OpPublish).
				WithError(err).
				WithTable(note.Table).
				ToSlice()...)
	}
}

// Notifier is the method set shared by every notifier in this package.
type Notifier interface {
	Notify(ctx context.Context, n core.Notification)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, note core.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, note)
		}
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	notes []core.Notification
}

func (r *Recorder) Notify(_ context.Context, note core.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Notification(nil), r.notes...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (core.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return core.Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}
