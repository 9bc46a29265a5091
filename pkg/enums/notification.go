package enums

import "fmt"

// NotificationType names the trigger that produced a notification.
type NotificationType string

const (
	NotificationTypeOrderReady         NotificationType = "order_ready"
	NotificationTypeInventoryThreshold NotificationType = "inventory_threshold"
	NotificationTypeEscalation         NotificationType = "escalation"
	NotificationTypeLocationCancelled  NotificationType = "location_cancelled"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderReady,
	NotificationTypeInventoryThreshold,
	NotificationTypeEscalation,
	NotificationTypeLocationCancelled,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationChannel is the delivery channel requested for a notification.
// Transport itself is handled by an external dispatcher.
type NotificationChannel string

const (
	NotificationChannelPush  NotificationChannel = "push"
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelInApp NotificationChannel = "in_app"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelPush,
	NotificationChannelSMS,
	NotificationChannelEmail,
	NotificationChannelInApp,
}

// IsValid reports whether the value is a known NotificationChannel.
func (n NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationPriority orders delivery urgency.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityNormal,
	NotificationPriorityHigh,
	NotificationPriorityUrgent,
}

// IsValid reports whether the value is a known NotificationPriority.
func (n NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw input into a NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}
