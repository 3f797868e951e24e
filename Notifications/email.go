package Notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"Lulan/Models"
)

// EmailConfig is the outgoing mail server for urgent task alerts.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	TLSEnabled bool
	To         []string
}

// Email mails urgent tasks to the charge nurses.
type Email struct {
	Config EmailConfig
	// send defaults to smtp.SendMail, or a TLS session when TLSEnabled
	send func(cfg EmailConfig, recipients []string, body []byte) error
}

func NewEmail(cfg EmailConfig) *Email {
	return &Email{Config: cfg}
}

func (n *Email) TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error {
	if !alerting(task, flags) || len(n.Config.To) == 0 {
		return nil
	}
	send := n.send
	if send == nil {
		send = sendMail
	}
	body := EmailBody(n.Config, task)
	if err := send(n.Config, n.Config.To, body); err != nil {
		return fmt.Errorf("error sending urgent task email: %v", err)
	}
	return nil
}

// EmailBody builds the headers and plain text body.
func EmailBody(cfg EmailConfig, task Models.Task) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: Urgent delivery %s\r\n", task.ID)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(Summary(task))
	b.WriteString("\r\nRequested at " + task.Timestamp + "\r\n")
	return []byte(b.String())
}

func sendMail(cfg EmailConfig, recipients []string, body []byte) error {
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPServer)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPServer, cfg.SMTPPort)
	if !cfg.TLSEnabled {
		return smtp.SendMail(addr, auth, cfg.FromEmail, recipients, body)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.SMTPServer})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}
	client, err := smtp.NewClient(conn, cfg.SMTPServer)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %v", err)
	}
	if err = client.Mail(cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %v", recipient, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %v", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email body: %v", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %v", err)
	}
	return client.Quit()
}
