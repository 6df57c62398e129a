package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careercompass/auth-service/internal/contracts/event"
)

func newRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := NewTemplateRenderer("Career Compass")
	require.NoError(t, err)
	return r
}

func envelope(kind string, payload event.NotificationPayload) event.NotificationEnvelope {
	return event.NotificationEnvelope{
		Kind:      kind,
		Recipient: event.Recipient{UserID: "u-1", Name: "Ada", Email: "ada@example.com"},
		Payload:   payload,
	}
}

func TestRenderWelcome(t *testing.T) {
	r := newRenderer(t)
	subject, html, err := r.Render("welcome", envelope("welcome", event.NotificationPayload{
		DashboardURL: "https://app.test/dashboard",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Career Compass", subject)
	assert.Contains(t, html, "https://app.test/dashboard")
	assert.Contains(t, html, "Ada")
	assert.Contains(t, html, "Career Compass")
}

func TestRenderVerify(t *testing.T) {
	r := newRenderer(t)
	subject, html, err := r.Render("verify", envelope("verify", event.NotificationPayload{
		VerificationURL: "https://api.test/auth/email/verify/u-1/abc?expires=1&signature=s",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Verify your email address", subject)
	assert.Contains(t, html, "/auth/email/verify/u-1/abc")
}

func TestRenderForgotPassword(t *testing.T) {
	r := newRenderer(t)
	subject, html, err := r.Render("forgot-password", envelope("forgot-password", event.NotificationPayload{
		ResetURL: "https://app.test/reset-password?token=tok",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, html, "reset-password?token=tok")
}

func TestRenderOTP(t *testing.T) {
	r := newRenderer(t)
	subject, html, err := r.Render("otp", envelope("otp", event.NotificationPayload{
		Code:          "042531",
		ExpiryMinutes: 10,
		Action:        "confirm your login",
		IPAddress:     "203.0.113.9",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Your verification code", subject)
	assert.Contains(t, html, "042531")
	assert.Contains(t, html, "10 minutes")
	assert.Contains(t, html, "203.0.113.9")
}

func TestRenderGeneric(t *testing.T) {
	r := newRenderer(t)

	t.Run("urgent subject is prefixed", func(t *testing.T) {
		subject, html, err := r.Render("generic", envelope("generic", event.NotificationPayload{
			Title:   "Account review",
			Message: "Please review recent activity.",
			Urgent:  true,
		}))
		require.NoError(t, err)
		assert.Equal(t, "[Urgent] Account review", subject)
		assert.Contains(t, html, "requires your attention")
	})

	t.Run("optional sections rendered when present", func(t *testing.T) {
		_, html, err := r.Render("generic", envelope("generic", event.NotificationPayload{
			Title:      "Application update",
			Message:    "Your application moved forward.",
			Highlight:  "Interview scheduled",
			ActionText: "View details",
			ActionURL:  "https://app.test/applications/1",
			DataTable:  map[string]string{"Company": "Acme", "Stage": "Interview"},
			Sender:     "Recruiting team",
		}))
		require.NoError(t, err)
		assert.Contains(t, html, "Interview scheduled")
		assert.Contains(t, html, "View details")
		assert.Contains(t, html, "Acme")
		assert.Contains(t, html, "Recruiting team")
	})

	t.Run("html in payload is escaped", func(t *testing.T) {
		_, html, err := r.Render("generic", envelope("generic", event.NotificationPayload{
			Title:   "<script>alert(1)</script>",
			Message: "body",
		}))
		require.NoError(t, err)
		assert.NotContains(t, html, "<script>")
	})
}

func TestRenderUnknownKind(t *testing.T) {
	r := newRenderer(t)
	_, _, err := r.Render("carrier-pigeon", envelope("carrier-pigeon", event.NotificationPayload{}))
	assert.Error(t, err)
}
