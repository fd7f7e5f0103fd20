package event

import (
	"context"

	"github.com/veracampus/campushub/pkg/module"
)

// Topics for the view-facing toast stream.
const (
	TopicNotifySuccess = "notify.success"
	TopicNotifyError   = "notify.error"
)

// Notifier publishes screen notifications onto the bus, where the
// websocket stream picks them up for the view.
type Notifier struct {
	bus    module.EventBus
	source string
}

// NewNotifier creates a Notifier attributed to the given screen.
func NewNotifier(bus module.EventBus, source string) *Notifier {
	return &Notifier{bus: bus, source: source}
}

// Success emits a success toast.
func (n *Notifier) Success(msg string) {
	n.publish(TopicNotifySuccess, msg)
}

// Error emits an error toast.
func (n *Notifier) Error(msg string) {
	n.publish(TopicNotifyError, msg)
}

func (n *Notifier) publish(topic, msg string) {
	if n.bus == nil || msg == "" {
		return
	}
	n.bus.PublishAsync(context.Background(), module.Event{
		Topic:   topic,
		Source:  n.source,
		Payload: map[string]any{"message": msg},
	})
}
