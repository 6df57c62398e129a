// Package email renders notification envelopes into HTML messages and
// delivers them over SMTP.
package email

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/careercompass/auth-service/internal/contracts/event"
)

// TemplateRenderer maps notification kinds to HTML templates sharing one
// layout.
type TemplateRenderer struct {
	appName string
	tmpl    *template.Template
}

func NewTemplateRenderer(appName string) (*TemplateRenderer, error) {
	if appName == "" {
		appName = "Career Compass"
	}
	tmpl, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	for name, body := range map[string]string{
		"welcome":         welcomeTemplate,
		"verify":          verifyTemplate,
		"forgot-password": forgotPasswordTemplate,
		"otp":             otpTemplate,
		"generic":         genericTemplate,
	} {
		if _, err := tmpl.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
	}
	return &TemplateRenderer{appName: appName, tmpl: tmpl}, nil
}

type templateData struct {
	AppName string
	Name    string
	Body    template.HTML
	Payload event.NotificationPayload
}

// Render implements notify.Renderer.
func (r *TemplateRenderer) Render(kind string, env event.NotificationEnvelope) (string, string, error) {
	if r.tmpl.Lookup(kind) == nil {
		return "", "", fmt.Errorf("no template for kind %q", kind)
	}

	data := templateData{
		AppName: r.appName,
		Name:    env.Recipient.Name,
		Payload: env.Payload,
	}

	var inner strings.Builder
	if err := r.tmpl.ExecuteTemplate(&inner, kind, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	data.Body = template.HTML(inner.String())

	var out strings.Builder
	if err := r.tmpl.ExecuteTemplate(&out, "layout", data); err != nil {
		return "", "", fmt.Errorf("render layout: %w", err)
	}

	return r.subjectFor(kind, env), out.String(), nil
}

func (r *TemplateRenderer) subjectFor(kind string, env event.NotificationEnvelope) string {
	switch kind {
	case "welcome":
		return "Welcome to " + r.appName
	case "verify":
		return "Verify your email address"
	case "forgot-password":
		return "Reset your password"
	case "otp":
		return "Your verification code"
	case "generic":
		if env.Payload.Urgent {
			return "[Urgent] " + env.Payload.Title
		}
		return env.Payload.Title
	default:
		return r.appName
	}
}

const layoutTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background-color:#2563eb;padding:24px;text-align:center;">
<span style="color:#ffffff;font-size:22px;font-weight:bold;">{{.AppName}}</span>
</td></tr>
<tr><td style="padding:32px;color:#333333;font-size:15px;line-height:1.6;">
{{.Body}}
</td></tr>
<tr><td style="padding:20px;text-align:center;color:#9ca3af;font-size:12px;border-top:1px solid #e5e7eb;">
This email was sent by {{.AppName}}. If you did not expect it, you can ignore it.
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`

const welcomeTemplate = `<h2 style="margin-top:0;">Welcome aboard{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your account is ready. Head to your dashboard to set up your profile and start exploring.</p>
<p style="text-align:center;margin:28px 0;">
<a href="{{.Payload.DashboardURL}}" style="background-color:#2563eb;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;font-weight:bold;">Go to dashboard</a>
</p>`

const verifyTemplate = `<h2 style="margin-top:0;">Verify your email address</h2>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>Click the button below to confirm this address. The link expires in one hour.</p>
<p style="text-align:center;margin:28px 0;">
<a href="{{.Payload.VerificationURL}}" style="background-color:#2563eb;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;font-weight:bold;">Verify email</a>
</p>
<p style="color:#6b7280;font-size:13px;">If the button does not work, copy this link into your browser:<br>{{.Payload.VerificationURL}}</p>`

const forgotPasswordTemplate = `<h2 style="margin-top:0;">Reset your password</h2>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>We received a request to reset the password for your account. The link below expires in one hour and can be used once.</p>
<p style="text-align:center;margin:28px 0;">
<a href="{{.Payload.ResetURL}}" style="background-color:#2563eb;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;font-weight:bold;">Reset password</a>
</p>
<p style="color:#6b7280;font-size:13px;">If you did not request this, no action is needed; your password stays unchanged.</p>`

const otpTemplate = `<h2 style="margin-top:0;">Your verification code</h2>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
{{if .Payload.Action}}<p>Use this code to {{.Payload.Action}}:</p>{{else}}<p>Use this code to continue:</p>{{end}}
<p style="text-align:center;margin:28px 0;">
<span style="display:inline-block;background-color:#f3f4f6;border-radius:8px;padding:16px 32px;font-size:30px;letter-spacing:8px;font-weight:bold;color:#111827;">{{.Payload.Code}}</span>
</p>
<p>The code expires in {{.Payload.ExpiryMinutes}} minutes.</p>
{{if .Payload.IPAddress}}<p style="color:#6b7280;font-size:13px;">Requested from IP {{.Payload.IPAddress}}.</p>{{end}}`

const genericTemplate = `{{if .Payload.Urgent}}<p style="background-color:#fef2f2;border-left:4px solid #dc2626;padding:10px 14px;color:#991b1b;font-weight:bold;">This message requires your attention.</p>{{end}}
<h2 style="margin-top:0;">{{.Payload.Title}}</h2>
<p>{{.Payload.Message}}</p>
{{if .Payload.Description}}<p style="color:#6b7280;">{{.Payload.Description}}</p>{{end}}
{{if .Payload.Highlight}}<p style="background-color:#eff6ff;border-radius:6px;padding:12px 16px;font-weight:bold;">{{.Payload.Highlight}}</p>{{end}}
{{if .Payload.DataTable}}<table role="presentation" cellpadding="0" cellspacing="0" style="width:100%;margin:16px 0;border-collapse:collapse;">
{{range $k, $v := .Payload.DataTable}}<tr>
<td style="padding:8px 12px;border-bottom:1px solid #e5e7eb;color:#6b7280;width:40%;">{{$k}}</td>
<td style="padding:8px 12px;border-bottom:1px solid #e5e7eb;color:#111827;">{{$v}}</td>
</tr>{{end}}
</table>{{end}}
{{if .Payload.ActionURL}}<p style="text-align:center;margin:28px 0;">
<a href="{{.Payload.ActionURL}}" style="background-color:#2563eb;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;font-weight:bold;">{{.Payload.ActionText}}</a>
</p>{{end}}
{{if .Payload.Sender}}<p style="color:#6b7280;font-size:13px;">Sent by {{.Payload.Sender}}</p>{{end}}`
