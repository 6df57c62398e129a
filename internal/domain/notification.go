package domain

import "fmt"

// NotificationKind selects the email template used by the notifier worker.
type NotificationKind string

const (
	NotifyWelcome        NotificationKind = "welcome"
	NotifyVerifyEmail    NotificationKind = "verify"
	NotifyForgotPassword NotificationKind = "forgot-password"
	NotifyOTP            NotificationKind = "otp"
	NotifyGeneric        NotificationKind = "generic"
)

// Notification is a tagged union of the messages the dispatcher can send.
// Variants validate at construction so malformed payloads never reach the
// queue.
type Notification interface {
	Kind() NotificationKind
	Validate() error
}

type WelcomeNotification struct {
	DashboardURL string
}

func (WelcomeNotification) Kind() NotificationKind { return NotifyWelcome }

func (n WelcomeNotification) Validate() error {
	if n.DashboardURL == "" {
		return fmt.Errorf("welcome notification: missing dashboard url")
	}
	return nil
}

type VerifyEmailNotification struct {
	VerificationURL string
}

func (VerifyEmailNotification) Kind() NotificationKind { return NotifyVerifyEmail }

func (n VerifyEmailNotification) Validate() error {
	if n.VerificationURL == "" {
		return fmt.Errorf("verify notification: missing verification url")
	}
	return nil
}

type ForgotPasswordNotification struct {
	ResetURL string
}

func (ForgotPasswordNotification) Kind() NotificationKind { return NotifyForgotPassword }

func (n ForgotPasswordNotification) Validate() error {
	if n.ResetURL == "" {
		return fmt.Errorf("forgot-password notification: missing reset url")
	}
	return nil
}

// OTPNotification carries a 6-digit zero-padded code. The optional IP is
// shown in the email for audit purposes only.
type OTPNotification struct {
	Code            string
	ExpiryMinutes   int
	Action          string
	Purpose         string
	VerificationURL string
	IPAddress       string
}

func (OTPNotification) Kind() NotificationKind { return NotifyOTP }

func (n OTPNotification) Validate() error {
	if len(n.Code) != 6 {
		return fmt.Errorf("otp notification: code must be 6 digits, got %d", len(n.Code))
	}
	for _, c := range n.Code {
		if c < '0' || c > '9' {
			return fmt.Errorf("otp notification: code must be numeric")
		}
	}
	if n.ExpiryMinutes <= 0 {
		return fmt.Errorf("otp notification: expiry must be positive")
	}
	return nil
}

// GenericNotification is the free-form variant behind the success / warning /
// info / urgent emails. All display fields except Title and Message are
// optional.
type GenericNotification struct {
	Title       string
	Message     string
	Description string
	Highlight   string
	ActionText  string
	ActionURL   string
	DataTable   map[string]string
	Urgent      bool
	Sender      string
}

func (GenericNotification) Kind() NotificationKind { return NotifyGeneric }

func (n GenericNotification) Validate() error {
	if n.Title == "" {
		return fmt.Errorf("generic notification: missing title")
	}
	if n.Message == "" {
		return fmt.Errorf("generic notification: missing message")
	}
	if (n.ActionText == "") != (n.ActionURL == "") {
		return fmt.Errorf("generic notification: action text and url must be set together")
	}
	return nil
}
