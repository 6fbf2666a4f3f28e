package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"
)

// emailsAPI is the slice of the Resend SDK the provider needs. Narrowed so
// tests can substitute a fake without network access.
type emailsAPI interface {
	SendWithContext(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider delivers transactional emails through the Resend API.
type ResendProvider struct {
	emails emailsAPI
}

func NewResendProvider(apiKey string) (*ResendProvider, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}

	client := resend.NewClient(trimmedKey)
	return &ResendProvider{emails: client.Emails}, nil
}

func NewResendProviderWithEmails(emails emailsAPI) (*ResendProvider, error) {
	if emails == nil {
		return nil, fmt.Errorf("resend emails api is required")
	}
	return &ResendProvider{emails: emails}, nil
}

func (p *ResendProvider) Send(ctx context.Context, email Email) (*Receipt, error) {
	if p == nil || p.emails == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	}
	if replyTo := strings.TrimSpace(email.ReplyTo); replyTo != "" {
		req.ReplyTo = replyTo
	}

	resp, err := p.emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, Classify(err)
	}
	if resp == nil {
		return nil, &ProviderError{
			Kind:    KindRejected,
			Message: "provider returned empty response",
		}
	}

	return &Receipt{MessageID: resp.Id}, nil
}

func validateEmail(email Email) error {
	if strings.TrimSpace(email.From) == "" {
		return &ProviderError{Kind: KindValidation, Message: "sender address is required"}
	}
	if strings.TrimSpace(email.To) == "" {
		return &ProviderError{Kind: KindValidation, Message: "recipient address is required"}
	}
	if strings.TrimSpace(email.Subject) == "" {
		return &ProviderError{Kind: KindValidation, Message: "subject is required"}
	}
	if strings.TrimSpace(email.HTML) == "" {
		return &ProviderError{Kind: KindValidation, Message: "body is required"}
	}
	return nil
}
