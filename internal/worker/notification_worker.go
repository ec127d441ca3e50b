package worker

import (
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifier *notify.AreaNotifier, dispatcher events.Dispatcher) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers(dispatcher)
}
