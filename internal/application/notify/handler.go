package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/careercompass/auth-service/internal/contracts/event"
	"github.com/careercompass/auth-service/internal/logger"
)

// Decision tells the consumer what to do with the delivery.
type Decision int

const (
	// Ack removes the message; it was handled or is a duplicate.
	Ack Decision = iota
	// Retry requeues the message with an incremented attempt count.
	Retry
	// Drop dead-letters the message; it can never succeed.
	Drop
)

// IdempotencyStore remembers processed message ids so redeliveries do not
// send a second email.
type IdempotencyStore interface {
	// MarkProcessed returns true the first time a message id is seen within
	// the retention window. It acts as a lock: a concurrent redelivery of
	// the same id observes false.
	MarkProcessed(ctx context.Context, messageID string, retention time.Duration) (first bool, err error)
	// Clear releases the mark so a failed send can be retried.
	Clear(ctx context.Context, messageID string) error
}

// Renderer produces the subject and HTML body for a notification kind.
type Renderer interface {
	Render(kind string, env event.NotificationEnvelope) (subject, html string, err error)
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

// Handler is the worker side of the pipeline: decode, dedupe, render, send.
type Handler struct {
	idem      IdempotencyStore
	renderer  Renderer
	sender    Sender
	retention time.Duration
	maxRetry  int

	onResult func(kind, outcome string)
}

func NewHandler(idem IdempotencyStore, renderer Renderer, sender Sender, retention time.Duration, maxRetry int) *Handler {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &Handler{
		idem:      idem,
		renderer:  renderer,
		sender:    sender,
		retention: retention,
		maxRetry:  maxRetry,
		onResult:  func(string, string) {},
	}
}

// WithResultHook registers a callback for metrics; outcome is one of sent,
// duplicate, malformed, render_failed, send_failed, dead_lettered.
func (h *Handler) WithResultHook(fn func(kind, outcome string)) *Handler {
	if fn != nil {
		h.onResult = fn
	}
	return h
}

// Handle processes one delivery. attempt counts prior tries (0 on first
// delivery).
func (h *Handler) Handle(ctx context.Context, body []byte, attempt int) Decision {
	lg := logger.WithCtx(ctx)

	var env event.NotificationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		lg.Error().Err(err).Msg("malformed notification message")
		h.onResult("unknown", "malformed")
		return Drop
	}
	if err := validateEnvelope(env); err != nil {
		lg.Error().Err(err).Str("message_id", env.MessageID).Msg("invalid notification envelope")
		h.onResult(env.Kind, "malformed")
		return Drop
	}

	first, err := h.idem.MarkProcessed(ctx, env.MessageID, h.retention)
	if err != nil {
		return h.retryOrDrop(ctx, env, attempt, "idempotency check failed", err)
	}
	if !first {
		lg.Info().Str("message_id", env.MessageID).Msg("duplicate notification skipped")
		h.onResult(env.Kind, "duplicate")
		return Ack
	}

	subject, html, err := h.renderer.Render(env.Kind, env)
	if err != nil {
		// Rendering is deterministic; retrying cannot help.
		lg.Error().Err(err).
			Str("kind", env.Kind).
			Str("message_id", env.MessageID).
			Msg("notification render failed")
		h.onResult(env.Kind, "render_failed")
		return Drop
	}

	if err := h.sender.Send(ctx, env.Recipient.Email, env.Recipient.Name, subject, html); err != nil {
		// Release the mark so the redelivery is not skipped as a duplicate.
		if clearErr := h.idem.Clear(ctx, env.MessageID); clearErr != nil {
			lg.Error().Err(clearErr).Str("message_id", env.MessageID).Msg("failed to clear idempotency mark")
		}
		h.onResult(env.Kind, "send_failed")
		return h.retryOrDrop(ctx, env, attempt, "email send failed", err)
	}

	lg.Info().
		Str("kind", env.Kind).
		Str("message_id", env.MessageID).
		Msg("notification sent")
	h.onResult(env.Kind, "sent")
	return Ack
}

func (h *Handler) retryOrDrop(ctx context.Context, env event.NotificationEnvelope, attempt int, msg string, err error) Decision {
	lg := logger.WithCtx(ctx)
	if attempt+1 >= h.maxRetry {
		lg.Error().Err(err).
			Str("message_id", env.MessageID).
			Int("attempt", attempt).
			Msg(msg + ", dead-lettering")
		h.onResult(env.Kind, "dead_lettered")
		return Drop
	}
	lg.Warn().Err(err).
		Str("message_id", env.MessageID).
		Int("attempt", attempt).
		Msg(msg + ", will retry")
	return Retry
}

func validateEnvelope(env event.NotificationEnvelope) error {
	if env.MessageID == "" {
		return fmt.Errorf("missing message_id")
	}
	if env.Kind == "" {
		return fmt.Errorf("missing kind")
	}
	if env.Recipient.Email == "" {
		return fmt.Errorf("missing recipient email")
	}
	return nil
}
