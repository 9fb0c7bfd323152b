package services

import (
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"

	"github.com/doit-inc/doit-engine/pkg/config"
	"github.com/doit-inc/doit-engine/pkg/logging"
)

// Mailer sends notification emails. All notification mail in doit-engine is
// best-effort: callers fire it from a goroutine and log failures instead of
// propagating them.
type Mailer interface {
	Send(to, subject, htmlBody string) error
	Enabled() bool
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a mailer from SMTP configuration. When SMTP is not
// configured the returned mailer reports Enabled() == false and Send is a
// no-op.
func NewMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Enabled() bool {
	return m.cfg.Enabled()
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	if !m.Enabled() {
		return nil
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if m.cfg.StartTLS {
		dialer.StartTLSPolicy = mail.MandatoryStartTLS
	} else {
		dialer.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	dialer.TLSConfig = &tls.Config{ServerName: m.cfg.Host}

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

var _ Mailer = (*smtpMailer)(nil)

// notify sends an email in the background. Delivery failures are logged and
// swallowed; nothing user-facing ever waits on SMTP.
func notify(mailer Mailer, logger *zap.Logger, to, subject, htmlBody string) {
	if !mailer.Enabled() {
		return
	}
	go func() {
		if err := mailer.Send(to, subject, htmlBody); err != nil {
			// Invitation mail bodies carry the raw token, scrub before logging.
			logger.Warn("Failed to send notification email",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.String("error", logging.SanitizeError(err)))
		}
	}()
}

func invitationEmailBody(workspaceName, inviterName, link string, expiryDays int) string {
	return fmt.Sprintf(`
		<p>%s has invited you to join the <strong>%s</strong> workspace on DOit.</p>
		<p><a href="%s">Accept the invitation</a></p>
		<p>This invitation expires in %d days. If you weren't expecting it you
		can ignore this email.</p>`,
		inviterName, workspaceName, link, expiryDays)
}

func assignmentEmailBody(taskTitle, projectName, assignerName string) string {
	return fmt.Sprintf(`
		<p>%s assigned you a task in <strong>%s</strong>:</p>
		<p><strong>%s</strong></p>`,
		assignerName, projectName, taskTitle)
}
