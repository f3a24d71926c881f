package provider

import "context"

// Provider is the outbound delivery port to the messenger gateway. The ack
// token travels with the message and comes back verbatim when the recipient
// confirms. A non-nil error is a delivery failure for that recipient only;
// callers aggregate failures into counts instead of propagating them.
type Provider interface {
	Send(ctx context.Context, recipientExternalID int64, text string, ackToken string) (*SendResponse, error)
}

// SendResponse stores gateway call metadata for audit and logging.
type SendResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
