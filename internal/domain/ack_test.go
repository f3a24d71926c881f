package domain

import (
	"errors"
	"testing"
)

func TestParseAckTokenReminder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    ReminderType
		wantErr bool
	}{
		{name: "dues", input: "reminder:dues", want: ReminderDues},
		{name: "vpn", input: "reminder:vpn", want: ReminderVPN},
		{name: "trimmed", input: "  reminder:dues  ", want: ReminderDues},
		{name: "unknown type", input: "reminder:lockers", wantErr: true},
		{name: "missing separator", input: "reminder", wantErr: true},
		{name: "unknown kind", input: "payment:dues", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ack, err := ParseAckToken(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseAckToken() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseAckToken() unexpected error = %v", err)
			}
			if ack.Kind != AckReminder {
				t.Fatalf("Kind = %s, want %s", ack.Kind, AckReminder)
			}
			if ack.ReminderType != tt.want {
				t.Fatalf("ReminderType = %s, want %s", ack.ReminderType, tt.want)
			}
		})
	}
}

func TestParseAckTokenCustom(t *testing.T) {
	t.Parallel()

	const id = "7f9c24e8-3b12-4a6b-9f6a-3a1a2b3c4d5e"

	ack, err := ParseAckToken(CustomAckToken(id))
	if err != nil {
		t.Fatalf("ParseAckToken() unexpected error = %v", err)
	}
	if ack.Kind != AckCustom {
		t.Fatalf("Kind = %s, want %s", ack.Kind, AckCustom)
	}
	if ack.NotificationID != id {
		t.Fatalf("NotificationID = %s, want %s", ack.NotificationID, id)
	}

	_, err = ParseAckToken("custom:not-a-uuid")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseAckToken() error = %v, want ErrValidation", err)
	}
}

func TestReminderAckTokenRoundTrip(t *testing.T) {
	t.Parallel()

	for _, reminderType := range ReminderTypes() {
		ack, err := ParseAckToken(ReminderAckToken(reminderType))
		if err != nil {
			t.Fatalf("ParseAckToken(%s) error = %v", reminderType, err)
		}
		if ack.ReminderType != reminderType {
			t.Fatalf("round trip = %s, want %s", ack.ReminderType, reminderType)
		}
	}
}
