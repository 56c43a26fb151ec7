package notify

import (
	"attestbot/internal/logger"

	"go.uber.org/zap"
)

// Notifier raises operator alerts. Delivery (SMTP etc.) is an external concern;
// the bot only cares that the alert leaves the process.
type Notifier interface {
	NotifyAdmin(subject string, body string)
}

// LogNotifier writes alerts to the error log.
type LogNotifier struct{}

func (LogNotifier) NotifyAdmin(subject string, body string) {
	logger.Error("admin notification", zap.String("subject", subject), zap.String("body", body))
}
