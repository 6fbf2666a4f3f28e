package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/form-relay/internal/provider"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts    = 3
	defaultSendTimeout    = 10 * time.Second
	defaultBaseDelay      = time.Second
	defaultMaxDelay       = 10 * time.Second
	defaultHandshakeDelay = 2 * time.Second
)

// Config bounds the retry behavior of a Sender. All values are passed in
// at construction; there is no process-wide state.
type Config struct {
	MaxAttempts    int
	SendTimeout    time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	HandshakeDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.HandshakeDelay <= 0 {
		c.HandshakeDelay = defaultHandshakeDelay
	}
	return c
}

// AttemptInfo describes one physical send attempt.
type AttemptInfo struct {
	Number  int
	Elapsed time.Duration
	Err     error
}

// SendResult reports the provider acknowledgment together with how many
// attempts it took to get there.
type SendResult struct {
	Receipt  *provider.Receipt
	Attempts int
	History  []AttemptInfo
}

// Sender wraps a provider send call with bounded retries. Network failures
// back off exponentially, handshake failures linearly; everything else
// aborts on the first attempt.
type Sender struct {
	provider provider.Provider
	config   Config
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(p provider.Provider, cfg Config, logger *zap.Logger) (*Sender, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sender{
		provider: p,
		config:   cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
		sleep:    sleepWithContext,
	}, nil
}

// Send attempts delivery up to MaxAttempts times. The returned result is
// non-nil even on failure so callers can persist the attempt history; the
// error is the classified last failure.
func (s *Sender) Send(ctx context.Context, email provider.Email) (*SendResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &SendResult{History: make([]AttemptInfo, 0, s.config.MaxAttempts)}
	var lastErr *provider.ProviderError

	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
		start := s.now()
		receipt, err := s.provider.Send(attemptCtx, email)
		cancel()
		elapsed := s.now().Sub(start)

		result.History = append(result.History, AttemptInfo{
			Number:  attempt,
			Elapsed: elapsed,
			Err:     err,
		})

		if err == nil {
			result.Receipt = receipt
			return result, nil
		}

		lastErr = provider.Classify(err)
		if !lastErr.Kind.Retryable() {
			return result, lastErr
		}
		if attempt == s.config.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return result, lastErr
		}

		delay := s.retryDelay(lastErr.Kind, attempt)
		s.logger.Warn("send attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("kind", string(lastErr.Kind)),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := s.sleep(ctx, delay); err != nil {
			return result, lastErr
		}
	}

	return result, fmt.Errorf("send failed after %d attempts: %w", result.Attempts, lastErr)
}

// retryDelay computes the wait before the attempt following attemptNumber.
// Handshake failures wait linearly; network failures wait
// min(base * 2^(attempt-1), max).
func (s *Sender) retryDelay(kind provider.ErrorKind, attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	if kind == provider.KindHandshake {
		return s.config.HandshakeDelay * time.Duration(attemptNumber)
	}

	delay := s.config.BaseDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= s.config.MaxDelay {
			return s.config.MaxDelay
		}
	}
	if delay > s.config.MaxDelay {
		delay = s.config.MaxDelay
	}
	return delay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
