package enums

import "fmt"

// AlertSeverity grades escalation alerts from first nudge to final warning.
type AlertSeverity string

const (
	AlertSeverityNotice   AlertSeverity = "notice"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

var validAlertSeverities = []AlertSeverity{
	AlertSeverityNotice,
	AlertSeverityWarning,
	AlertSeverityCritical,
}

// String implements fmt.Stringer.
func (a AlertSeverity) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertSeverity.
func (a AlertSeverity) IsValid() bool {
	for _, candidate := range validAlertSeverities {
		if candidate == a {
			return true
		}
	}
	return false
}

// SeverityForStep maps a zero-based escalation step index onto a severity.
// Steps beyond the known ladder stay critical.
func SeverityForStep(step int) AlertSeverity {
	switch step {
	case 0:
		return AlertSeverityNotice
	case 1:
		return AlertSeverityWarning
	default:
		return AlertSeverityCritical
	}
}

// ParseAlertSeverity converts raw input into an AlertSeverity.
func ParseAlertSeverity(value string) (AlertSeverity, error) {
	for _, candidate := range validAlertSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert severity %q", value)
}
