package worker

import (
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker subscribes the notifier to ticket events and starts
// its Slack delivery loop. Call Close on the service at shutdown.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	notificationService.Start()
}
