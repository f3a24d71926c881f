package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Ack token wire format, carried with every outbound message and echoed back
// by the gateway when the recipient confirms:
//
//	reminder:<type>   closes the open reminder of that type
//	custom:<uuid>     closes one custom notification
const (
	ackKindReminder = "reminder"
	ackKindCustom   = "custom"
)

// AckKind distinguishes the two acknowledgment targets.
type AckKind string

const (
	AckReminder AckKind = AckKind(ackKindReminder)
	AckCustom   AckKind = AckKind(ackKindCustom)
)

// Ack is a parsed inbound acknowledgment.
type Ack struct {
	Kind           AckKind
	ReminderType   ReminderType // set when Kind == AckReminder
	NotificationID string       // set when Kind == AckCustom
}

// ReminderAckToken builds the token bound to a reminder type.
func ReminderAckToken(t ReminderType) string {
	return fmt.Sprintf("%s:%s", ackKindReminder, t)
}

// CustomAckToken builds the token bound to one custom notification.
func CustomAckToken(notificationID string) string {
	return fmt.Sprintf("%s:%s", ackKindCustom, notificationID)
}

// ParseAckToken decodes a token received from the transport layer.
func ParseAckToken(token string) (Ack, error) {
	kind, rest, found := strings.Cut(strings.TrimSpace(token), ":")
	if !found {
		return Ack{}, fmt.Errorf("%w: malformed ack token %q", ErrValidation, token)
	}

	switch kind {
	case ackKindReminder:
		t, err := ParseReminderType(rest)
		if err != nil {
			return Ack{}, err
		}
		return Ack{Kind: AckReminder, ReminderType: t}, nil
	case ackKindCustom:
		id := strings.TrimSpace(rest)
		if _, err := uuid.Parse(id); err != nil {
			return Ack{}, fmt.Errorf("%w: invalid notification id in ack token %q", ErrValidation, token)
		}
		return Ack{Kind: AckCustom, NotificationID: id}, nil
	default:
		return Ack{}, fmt.Errorf("%w: unknown ack kind %q", ErrValidation, kind)
	}
}
