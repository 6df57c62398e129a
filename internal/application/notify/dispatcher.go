// Package notify carries notifications from the flows that trigger them to
// the mailbox. The API side validates and publishes envelopes to RabbitMQ;
// the worker side consumes, renders, and sends.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careercompass/auth-service/internal/contracts/event"
	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/logger"
)

// Publisher sends an envelope to the notification exchange under a routing
// key of the form notify.<kind>.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, env event.NotificationEnvelope) error
}

// Dispatcher turns domain notifications into queue messages. Dispatch never
// fails the request that triggered it: a broken payload or a down broker is
// logged and dropped.
type Dispatcher struct {
	publisher Publisher
	producer  string
}

func NewDispatcher(publisher Publisher, producer string) *Dispatcher {
	return &Dispatcher{publisher: publisher, producer: producer}
}

func (d *Dispatcher) Notify(ctx context.Context, user domain.User, n domain.Notification) {
	lg := logger.WithCtx(ctx)

	if err := n.Validate(); err != nil {
		lg.Error().Err(err).
			Str("kind", string(n.Kind())).
			Str("user_id", user.ID).
			Msg("notification rejected before publish")
		return
	}

	env := event.NotificationEnvelope{
		Version:    1,
		Producer:   d.producer,
		MessageID:  uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Kind:       string(n.Kind()),
		Recipient: event.Recipient{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		},
		Payload: payloadFor(n),
	}

	if err := d.publisher.Publish(ctx, "notify."+env.Kind, env); err != nil {
		lg.Error().Err(err).
			Str("kind", env.Kind).
			Str("message_id", env.MessageID).
			Str("user_id", user.ID).
			Msg("notification publish failed")
		return
	}

	lg.Debug().
		Str("kind", env.Kind).
		Str("message_id", env.MessageID).
		Msg("notification queued")
}

func payloadFor(n domain.Notification) event.NotificationPayload {
	switch v := n.(type) {
	case domain.WelcomeNotification:
		return event.NotificationPayload{DashboardURL: v.DashboardURL}
	case domain.VerifyEmailNotification:
		return event.NotificationPayload{VerificationURL: v.VerificationURL}
	case domain.ForgotPasswordNotification:
		return event.NotificationPayload{ResetURL: v.ResetURL}
	case domain.OTPNotification:
		return event.NotificationPayload{
			Code:            v.Code,
			ExpiryMinutes:   v.ExpiryMinutes,
			Action:          v.Action,
			Purpose:         v.Purpose,
			VerificationURL: v.VerificationURL,
			IPAddress:       v.IPAddress,
		}
	case domain.GenericNotification:
		return event.NotificationPayload{
			Title:       v.Title,
			Message:     v.Message,
			Description: v.Description,
			Highlight:   v.Highlight,
			ActionText:  v.ActionText,
			ActionURL:   v.ActionURL,
			DataTable:   v.DataTable,
			Urgent:      v.Urgent,
			Sender:      v.Sender,
		}
	default:
		return event.NotificationPayload{}
	}
}
