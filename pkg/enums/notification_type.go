package enums

import "fmt"

// NotificationType classifies admin notifications by the record they reference.
type NotificationType string

const (
	NotificationTypeOrder   NotificationType = "order"
	NotificationTypeBooking NotificationType = "booking"
	NotificationTypeInquiry NotificationType = "inquiry"
	NotificationTypePayment NotificationType = "payment"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeBooking,
	NotificationTypeInquiry,
	NotificationTypePayment,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
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

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
