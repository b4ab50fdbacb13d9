// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSecurityAlert(toEmail, alertClass, summary string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

// SendSecurityAlert notifies the on-call inbox about an invariant violation.
// The summary must already be scrubbed: no question text, no snippets, no
// patient identifiers beyond the opaque id.
func (s *emailService) SendSecurityAlert(toEmail, alertClass, summary string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[SECURITY ALERT] %s", alertClass))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2 style="color: #C0392B;">Security alert: %s</h2>
			<p>%s</p>
			<p>Check the audit trail and service logs for the query id referenced above.</p>
		</div>
	`, alertClass, summary)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send security alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Security alert (%s) sent to %s\n", alertClass, toEmail)
	return nil
}
