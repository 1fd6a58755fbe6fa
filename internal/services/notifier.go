package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sync"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"lumenai/internal/domain"
	"lumenai/internal/logger"
	"lumenai/internal/util"
)

const submittedFormat = "January 2, 2006 at 3:04 PM MST"

var (
	inquiryHTML = htmltemplate.Must(htmltemplate.New("inquiry").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4338CA;">New inquiry from {{.Name}}</h2>
        <div style="background: #F8FAFC; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
            <p><strong>Phone:</strong> {{.Phone}}</p>
            <p><strong>Company:</strong> {{.CompanyName}} ({{.Country}})</p>
            <p><strong>Job title:</strong> {{.JobTitle}}</p>
            <p><strong>Submitted:</strong> {{.CreatedAt.Format "` + submittedFormat + `"}}</p>
        </div>
        <div style="padding: 20px; border-left: 4px solid #4338CA; margin: 20px 0;">
            <p style="white-space: pre-wrap;">{{.JobDescription}}</p>
        </div>
        <p style="color: #64748B; font-size: 14px;">Inquiry ID: {{.ID}}</p>
    </div>
</body>
</html>`))

	inquiryText = texttemplate.Must(texttemplate.New("inquiry").Parse(`New inquiry from {{.Name}}

Email: {{.Email}}
Phone: {{.Phone}}
Company: {{.CompanyName}} ({{.Country}})
Job title: {{.JobTitle}}
Submitted: {{.CreatedAt.Format "` + submittedFormat + `"}}

{{.JobDescription}}

Inquiry ID: {{.ID}}
`))

	feedbackText = texttemplate.Must(texttemplate.New("feedback").Parse(`New feedback from {{.Name}}{{if .Company}} ({{.Company}}){{end}}

Email: {{.Email}}
Rating: {{.Rating}}/5

{{.Message}}

Feedback ID: #{{.ID}}. It stays hidden until approved in the admin panel.
`))

	resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 32px;">
        <h2 style="color: #0F172A;">Reset your password</h2>
        <p>Use this code to reset your {{.Brand}} admin password:</p>
        <p style="font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #4338CA;">{{.Code}}</p>
        <p>The code expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
    </div>
</body>
</html>`))

	resetText = texttemplate.Must(texttemplate.New("reset").Parse(`Hello,

Your {{.Brand}} password reset code is: {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you did not request this code, please ignore this email.
`))
)

// Notifier sends admin notifications in the background and reset codes inline.
type Notifier struct {
	email      *EmailService
	adminEmail string
	brand      string
	log        *zap.Logger
	wg         sync.WaitGroup
}

// NewNotifier creates a notifier delivering to adminEmail.
func NewNotifier(email *EmailService, adminEmail, brand string) *Notifier {
	return &Notifier{
		email:      email,
		adminEmail: adminEmail,
		brand:      brand,
		log:        logger.Named("notifier"),
	}
}

// InquiryReceived emails the admin about a new inquiry without blocking the caller.
func (n *Notifier) InquiryReceived(inq domain.Inquiry) {
	n.goSend("inquiry", inq.ID, func() error {
		subject := fmt.Sprintf("New inquiry from %s at %s", inq.Name, inq.CompanyName)
		htmlBody, err := render(inquiryHTML, inq)
		if err != nil {
			return err
		}
		textBody, err := render(inquiryText, inq)
		if err != nil {
			return err
		}
		return n.email.SendHTMLEmail(n.adminEmail, subject, htmlBody, textBody)
	})
}

// FeedbackReceived emails the admin about new feedback awaiting approval.
func (n *Notifier) FeedbackReceived(fb domain.Feedback) {
	n.goSend("feedback", fmt.Sprint(fb.ID), func() error {
		textBody, err := render(feedbackText, fb)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("New %d-star feedback from %s", fb.Rating, fb.Name)
		return n.email.SendHTMLEmail(n.adminEmail, subject, "", textBody)
	})
}

// SendResetCode delivers a password reset code. Failures are logged only,
// so the response never reveals whether delivery worked.
func (n *Notifier) SendResetCode(to, code string) {
	data := struct {
		Brand   string
		Code    string
		Minutes int
	}{n.brand, code, int(util.OTPValidity / time.Minute)}

	htmlBody, err := render(resetHTML, data)
	if err == nil {
		var textBody string
		if textBody, err = render(resetText, data); err == nil {
			err = n.email.SendHTMLEmail(to, fmt.Sprintf("Your %s password reset code", n.brand), htmlBody, textBody)
		}
	}
	if err != nil {
		n.log.Warn("Reset code email failed", zap.String("to", to), zap.Error(err))
	}
}

// Wait blocks until every background notification has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) goSend(kind, id string, send func() error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("Notification panicked", zap.String("kind", kind), zap.Any("panic", r))
			}
		}()
		if err := send(); err != nil {
			n.log.Warn("Failed to send notification email", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
			return
		}
		n.log.Debug("Notification email sent", zap.String("kind", kind), zap.String("id", id))
	}()
}

type emailTemplate interface {
	Execute(wr io.Writer, data any) error
}

func render(tmpl emailTemplate, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
