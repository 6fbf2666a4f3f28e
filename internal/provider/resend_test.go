package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v3"
)

type fakeEmailsAPI struct {
	sendFn func(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
	calls  int
}

func (f *fakeEmailsAPI) SendWithContext(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.calls++
	return f.sendFn(ctx, req)
}

func validTestEmail() Email {
	return Email{
		From:    "Form Relay <noreply@example.com>",
		To:      "ada@example.com",
		Subject: "New contact message",
		HTML:    "<p>hello</p>",
	}
}

func TestResendProviderSendSuccess(t *testing.T) {
	t.Parallel()

	emails := &fakeEmailsAPI{
		sendFn: func(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
			if len(req.To) != 1 || req.To[0] != "ada@example.com" {
				t.Fatalf("request to = %v, want [ada@example.com]", req.To)
			}
			if req.Subject != "New contact message" {
				t.Fatalf("request subject = %q", req.Subject)
			}
			return &resend.SendEmailResponse{Id: "msg-123"}, nil
		},
	}

	p, err := NewResendProviderWithEmails(emails)
	if err != nil {
		t.Fatalf("NewResendProviderWithEmails() error = %v", err)
	}

	receipt, err := p.Send(context.Background(), validTestEmail())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if receipt.MessageID != "msg-123" {
		t.Fatalf("receipt message id = %q, want msg-123", receipt.MessageID)
	}
}

func TestResendProviderSendValidation(t *testing.T) {
	t.Parallel()

	emails := &fakeEmailsAPI{
		sendFn: func(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
			return &resend.SendEmailResponse{Id: "msg-999"}, nil
		},
	}
	p, err := NewResendProviderWithEmails(emails)
	if err != nil {
		t.Fatalf("NewResendProviderWithEmails() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *Email)
	}{
		{name: "missing from", mutate: func(e *Email) { e.From = "" }},
		{name: "missing to", mutate: func(e *Email) { e.To = " " }},
		{name: "missing subject", mutate: func(e *Email) { e.Subject = "" }},
		{name: "missing body", mutate: func(e *Email) { e.HTML = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			email := validTestEmail()
			tt.mutate(&email)

			_, err := p.Send(context.Background(), email)
			var providerErr *ProviderError
			if !errors.As(err, &providerErr) || providerErr.Kind != KindValidation {
				t.Fatalf("Send() error = %v, want VALIDATION ProviderError", err)
			}
		})
	}

	if emails.calls != 0 {
		t.Fatalf("provider calls = %d, want 0 for validation failures", emails.calls)
	}
}

func TestResendProviderSendClassifiesFailure(t *testing.T) {
	t.Parallel()

	emails := &fakeEmailsAPI{
		sendFn: func(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	p, err := NewResendProviderWithEmails(emails)
	if err != nil {
		t.Fatalf("NewResendProviderWithEmails() error = %v", err)
	}

	_, err = p.Send(context.Background(), validTestEmail())
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Send() error = %v, want ProviderError", err)
	}
	if providerErr.Kind != KindNetwork {
		t.Fatalf("Send() kind = %s, want NETWORK", providerErr.Kind)
	}
}

func TestResendProviderRejectsEmptyResponse(t *testing.T) {
	t.Parallel()

	emails := &fakeEmailsAPI{
		sendFn: func(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
			return nil, nil
		},
	}
	p, err := NewResendProviderWithEmails(emails)
	if err != nil {
		t.Fatalf("NewResendProviderWithEmails() error = %v", err)
	}

	_, err = p.Send(context.Background(), validTestEmail())
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != KindRejected {
		t.Fatalf("Send() error = %v, want REJECTED ProviderError", err)
	}
}

func TestNewResendProviderRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewResendProvider(" "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
