package queue

import (
	"fmt"
	"strings"
)

// AckMessage is the broker payload for one acknowledgment callback. Token
// carries the opaque ack token exactly as it was attached to the outbound
// message; routing happens at consume time, not publish time.
type AckMessage struct {
	RecipientExternalID int64  `json:"recipientExternalId"`
	Token               string `json:"token"`
}

func (m AckMessage) Validate() error {
	if m.RecipientExternalID <= 0 {
		return fmt.Errorf("recipientExternalId must be positive")
	}
	if strings.TrimSpace(m.Token) == "" {
		return fmt.Errorf("token is required")
	}
	return nil
}
