package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/form-relay/internal/domain"
	"github.com/kursadbilgin/form-relay/internal/lock"
	"github.com/kursadbilgin/form-relay/internal/mail"
	"github.com/kursadbilgin/form-relay/internal/observability"
	"github.com/kursadbilgin/form-relay/internal/provider"
	"github.com/kursadbilgin/form-relay/internal/repository"
	"github.com/kursadbilgin/form-relay/internal/sender"
	"go.uber.org/zap"
)

// DispatchStatus is the terminal state of one dispatch request.
type DispatchStatus string

const (
	DispatchSent        DispatchStatus = "SENT"
	DispatchAlreadySent DispatchStatus = "ALREADY_SENT"
)

// Outcome reports what a dispatch did. Failures are reported through the
// returned error instead.
type Outcome struct {
	RecipientKey string
	Status       DispatchStatus
	AlreadySent  bool
	Attempts     int
	MessageID    string
}

// DeliveryView combines a delivery record with its attempt history.
type DeliveryView struct {
	Record   *domain.DeliveryRecord
	Attempts []domain.DeliveryAttempt
}

// DispatcherConfig carries the dispatcher's explicit configuration; there
// are no module-level defaults beyond the attempt ceiling.
type DispatcherConfig struct {
	FromAddress string
	ReplyTo     string

	// MaxRecordAttempts is enforced at admission time: a record at or
	// above the ceiling is rejected before any provider call. A record
	// admitted just below it can still finish above, since one dispatch
	// may add several physical attempts.
	MaxRecordAttempts int
}

// Dispatcher orchestrates lookup, send and record update for one submission:
// CHECK, then either skip (already sent, attempt ceiling) or SEND through
// the retrying sender and persist the result. It never retries across
// requests; retries happen only inside one sender call.
type Dispatcher struct {
	records  repository.DeliveryRecordRepository
	attempts repository.AttemptRepository
	sender   *sender.Sender
	renderer *mail.Renderer
	locks    lock.KeyLock
	config   DispatcherConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewDispatcher(
	records repository.DeliveryRecordRepository,
	attempts repository.AttemptRepository,
	s *sender.Sender,
	renderer *mail.Renderer,
	locks lock.KeyLock,
	cfg DispatcherConfig,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if records == nil {
		return nil, fmt.Errorf("delivery record repository is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if s == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("key lock is required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("from address is required")
	}
	if cfg.MaxRecordAttempts < 1 {
		cfg.MaxRecordAttempts = domain.DefaultMaxRecordAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		records:  records,
		attempts: attempts,
		sender:   s,
		renderer: renderer,
		locks:    locks,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

func (d *Dispatcher) Dispatch(ctx context.Context, form domain.Form) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if form == nil {
		return nil, fmt.Errorf("%w: form is required", domain.ErrValidation)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	recipientKey := form.RecipientKey()
	formKind := form.Kind().String()

	release, err := d.locks.Acquire(ctx, recipientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire dispatch lock: %w", err)
	}
	defer release()

	record, err := d.records.CreateIfAbsent(ctx, recipientKey)
	if err != nil {
		return nil, err
	}

	if record.Delivered {
		d.metrics.IncDispatchSkipped(formKind, "already_sent")
		return &Outcome{
			RecipientKey: recipientKey,
			Status:       DispatchAlreadySent,
			AlreadySent:  true,
			Attempts:     record.Attempts,
		}, nil
	}

	if record.Attempts >= d.config.MaxRecordAttempts {
		d.metrics.IncDispatchSkipped(formKind, "rate_limited")
		return nil, fmt.Errorf("%w: %d attempts recorded for %s", domain.ErrRateLimited, record.Attempts, recipientKey)
	}

	rendered, err := d.renderer.Render(form)
	if err != nil {
		return nil, err
	}

	email := provider.Email{
		From:    d.config.FromAddress,
		To:      recipientKey,
		ReplyTo: d.config.ReplyTo,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	}

	sendStart := d.now()
	result, sendErr := d.sender.Send(ctx, email)
	d.metrics.ObserveSendDuration(formKind, d.now().Sub(sendStart))

	d.recordAttempts(ctx, recipientKey, result)
	if result != nil && result.Attempts > 1 {
		d.metrics.AddSendRetries(formKind, result.Attempts-1)
	}

	if sendErr != nil {
		attemptsMade := 1
		if result != nil {
			attemptsMade = result.Attempts
		}
		if storeErr := d.records.MarkAttemptFailed(ctx, recipientKey, attemptsMade, sendErr.Error()); storeErr != nil {
			d.logger.Error("failed to record failed attempt",
				zap.String("recipientKey", recipientKey),
				zap.Error(storeErr),
			)
		}
		d.metrics.IncDispatchFailed(formKind, failureReason(sendErr))
		return nil, sendErr
	}

	messageID := ""
	if result.Receipt != nil {
		messageID = result.Receipt.MessageID
	}

	outcome := &Outcome{
		RecipientKey: recipientKey,
		Status:       DispatchSent,
		Attempts:     result.Attempts,
		MessageID:    messageID,
	}

	if storeErr := d.records.MarkDelivered(ctx, recipientKey, result.Attempts, messageID); storeErr != nil {
		if errors.Is(storeErr, domain.ErrConflict) {
			// A concurrent dispatch recorded delivery first; ours still
			// went out, so report idempotent success.
			outcome.Status = DispatchAlreadySent
			outcome.AlreadySent = true
			d.metrics.IncDispatchSkipped(formKind, "lost_delivery_race")
			return outcome, nil
		}
		// The provider acknowledged the send; a store failure must not
		// turn that into a reported failure.
		d.logger.Error("failed to record delivery after successful send",
			zap.String("recipientKey", recipientKey),
			zap.String("messageId", messageID),
			zap.Error(storeErr),
		)
	}

	d.metrics.IncDispatchSent(formKind)
	return outcome, nil
}

// GetDelivery returns the record and attempt history for a recipient key.
func (d *Dispatcher) GetDelivery(ctx context.Context, recipientKey string) (*DeliveryView, error) {
	normalized := domain.NormalizeRecipientKey(recipientKey)
	if normalized == "" {
		return nil, fmt.Errorf("%w: recipient key is required", domain.ErrValidation)
	}

	record, err := d.records.GetByRecipientKey(ctx, normalized)
	if err != nil {
		return nil, err
	}

	attempts, err := d.attempts.ListByRecipientKey(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return &DeliveryView{Record: record, Attempts: attempts}, nil
}

// recordAttempts writes the per-attempt audit rows. Best effort: a failed
// audit write never fails the dispatch.
func (d *Dispatcher) recordAttempts(ctx context.Context, recipientKey string, result *sender.SendResult) {
	if result == nil {
		return
	}

	for _, info := range result.History {
		var attemptErr *string
		if info.Err != nil {
			value := info.Err.Error()
			attemptErr = &value
		}

		attempt := &domain.DeliveryAttempt{
			ID:            uuid.NewString(),
			RecipientKey:  recipientKey,
			AttemptNumber: info.Number,
			Error:         attemptErr,
			ElapsedMillis: info.Elapsed.Milliseconds(),
			CreatedAt:     d.now().UTC(),
		}

		if err := d.attempts.Create(ctx, attempt); err != nil {
			d.logger.Warn("failed to record attempt audit row",
				zap.String("recipientKey", recipientKey),
				zap.Int("attemptNumber", info.Number),
				zap.Error(err),
			)
		}
	}
}

func failureReason(err error) string {
	switch provider.KindOf(err) {
	case provider.KindNetwork, provider.KindHandshake:
		return "retry_exhausted"
	case provider.KindValidation:
		return "validation"
	default:
		return "provider_rejected"
	}
}
