package provider

import "context"

// Email is a fully-prepared transactional message.
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Receipt stores the provider acknowledgment for a successful send.
type Receipt struct {
	MessageID string
}

// Provider is the outbound email delivery port.
type Provider interface {
	Send(ctx context.Context, email Email) (*Receipt, error)
}
