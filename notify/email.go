package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/kypria/zeus/deflect"
)

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	// To receives every alert.
	To []string `yaml:"to"`
	// EscalationCC is added for HIGH and CRITICAL alerts.
	EscalationCC []string `yaml:"escalation_cc"`
}

// sendMailFunc matches smtp.SendMail; swapped in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email delivers alerts over SMTP with severity-tiered recipients.
type Email struct {
	cfg      EmailConfig
	sendMail sendMailFunc
}

// NewEmail creates an SMTP channel.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Email{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *Email) Name() string { return "email" }

// Recipients returns the tiered recipient list for a severity: the base list
// always, escalation addresses added at HIGH and above.
func (e *Email) Recipients(sev deflect.Severity) []string {
	to := append([]string(nil), e.cfg.To...)
	if sev.Rank() >= deflect.SeverityHigh.Rank() {
		to = append(to, e.cfg.EscalationCC...)
	}
	return to
}

func (e *Email) Send(ctx context.Context, evt Event) error {
	to := e.Recipients(evt.Severity)
	if len(to) == 0 {
		return &ErrSendFailed{Channel: e.Name(), Cause: fmt.Errorf("no recipients configured")}
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	msg := e.compose(evt, to)

	// smtp.SendMail has no context support; run it in a goroutine and race
	// against ctx so a hung server can't stall the dispatcher.
	done := make(chan error, 1)
	go func() { done <- e.sendMail(addr, auth, e.cfg.From, to, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return &ErrSendFailed{Channel: e.Name(), Cause: err}
		}
		return nil
	case <-ctx.Done():
		return &ErrSendFailed{Channel: e.Name(), Cause: ctx.Err()}
	}
}

// compose builds an RFC 5322 message. The subject is Q-encoded because alert
// messages carry Greek text.
func (e *Email) compose(evt Event, to []string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", evt.Title()))
	fmt.Fprintf(&sb, "Date: %s\r\n", evt.CreatedAt.UTC().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	fmt.Fprintf(&sb, "Protocol: %s\r\nType: %s\r\nSeverity: %s\r\n\r\n%s\r\n",
		evt.Protocol, evt.Type, evt.Severity, evt.Message)
	if evt.Excerpt != "" {
		fmt.Fprintf(&sb, "\r\n--- Page excerpt ---\r\n%s\r\n", evt.Excerpt)
	}
	return []byte(sb.String())
}
