package provider

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies a provider call failure.
type ErrorKind string

const (
	// KindNetwork covers connectivity failures: refused connections,
	// timeouts, DNS resolution. Retryable with exponential backoff.
	KindNetwork ErrorKind = "NETWORK"
	// KindHandshake covers TLS negotiation failures. Retryable with
	// linear backoff to let transient negotiation issues clear.
	KindHandshake ErrorKind = "HANDSHAKE"
	// KindValidation covers malformed payloads rejected before any
	// delivery was attempted. Never retried.
	KindValidation ErrorKind = "VALIDATION"
	// KindRejected covers provider-reported error payloads. Never retried.
	KindRejected ErrorKind = "REJECTED"
)

// Retryable reports whether a failure of this kind may be re-attempted
// within a single dispatch.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindHandshake
}

// ProviderError carries the classified kind alongside the underlying cause.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, fmt.Sprintf("provider error [%s]", e.Kind))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// handshakePatterns match free-text TLS negotiation failures.
var handshakePatterns = []string{
	"tls",
	"handshake",
	"certificate",
	"x509",
}

// networkPatterns match free-text connectivity failures. The external SDK
// only exposes free-text errors for transport problems, so substring
// matching is isolated here and covered by tests.
var networkPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"network",
	"eof",
	"econnrefused",
	"econnreset",
	"etimedout",
}

// Classify resolves an arbitrary send error into a ProviderError with an
// ErrorKind. Typed errors (net.Error, x509, context sentinels, an existing
// ProviderError) win over the pattern table; unmatched free text is
// treated as a provider rejection and not retried.
func Classify(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindNetwork, Message: "send timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: KindRejected, Message: "send canceled", Cause: err}
	}

	var certErr x509.CertificateInvalidError
	if errors.As(err, &certErr) {
		return &ProviderError{Kind: KindHandshake, Message: "certificate rejected", Cause: err}
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return &ProviderError{Kind: KindHandshake, Message: "unknown certificate authority", Cause: err}
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return &ProviderError{Kind: KindHandshake, Message: "certificate hostname mismatch", Cause: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ProviderError{Kind: KindNetwork, Message: "dns lookup failed", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ProviderError{Kind: KindNetwork, Message: "network failure", Cause: err}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range handshakePatterns {
		if strings.Contains(msg, pattern) {
			return &ProviderError{Kind: KindHandshake, Message: "handshake failure", Cause: err}
		}
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(msg, pattern) {
			return &ProviderError{Kind: KindNetwork, Message: "network failure", Cause: err}
		}
	}

	return &ProviderError{Kind: KindRejected, Message: "provider rejected send", Cause: err}
}

// KindOf returns the classified kind for an error.
func KindOf(err error) ErrorKind {
	classified := Classify(err)
	if classified == nil {
		return ""
	}
	return classified.Kind
}

// IsRetryable reports whether an error should be retried within one dispatch.
func IsRetryable(err error) bool {
	classified := Classify(err)
	return classified != nil && classified.Kind.Retryable()
}
