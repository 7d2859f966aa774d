package providers

import "context"

// MessageSender delivers a plain text message to a phone number and returns
// the provider's message ID
type MessageSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}
