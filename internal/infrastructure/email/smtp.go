package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// SMTPAlertMailer delivers credit alert emails to administrators.
type SMTPAlertMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPAlertMailer(config SMTPConfig) *SMTPAlertMailer {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPAlertMailer{
		config: config,
		dialer: dialer,
	}
}

func (s *SMTPAlertMailer) SendLowBalanceAlert(to, subjectID string, remaining, threshold uint) error {
	subject := fmt.Sprintf("Low credit balance for %s", subjectID)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Low Credit Balance</h2>
			<p>Professional <strong>%s</strong> has <strong>%d</strong> credit(s) remaining (threshold: %d).</p>
			<p>Grant additional credits to avoid blocked assessments.</p>
		</body>
		</html>
	`, subjectID, remaining, threshold)

	plainBody := fmt.Sprintf(`
Low Credit Balance

Professional %s has %d credit(s) remaining (threshold: %d).

Grant additional credits to avoid blocked assessments.
	`, subjectID, remaining, threshold)

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *SMTPAlertMailer) SendExhaustedAlert(to, subjectID, operation string) error {
	subject := fmt.Sprintf("Credits exhausted for %s", subjectID)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Credits Exhausted</h2>
			<p>Professional <strong>%s</strong> attempted %q with no credits remaining.</p>
			<p>The action was blocked. Grant additional credits to restore access.</p>
		</body>
		</html>
	`, subjectID, operation)

	plainBody := fmt.Sprintf(`
Credits Exhausted

Professional %s attempted %q with no credits remaining.

The action was blocked. Grant additional credits to restore access.
	`, subjectID, operation)

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *SMTPAlertMailer) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
