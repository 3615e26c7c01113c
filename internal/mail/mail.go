// Package mail is the composition boundary: it builds the message bytes and
// hands them to a sender. Delivery status is not tracked.
package mail

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// Message is one HTML report mail.
type Message struct {
	To       string
	From     string
	Subject  string
	HTMLBody string
}

// Compose renders the message as RFC 822 bytes with a text/html body.
func (m Message) Compose() []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", m.From)
	fmt.Fprintf(&sb, "To: %s\r\n", m.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", m.Subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(m.HTMLBody)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// Sender delivers a composed message.
type Sender interface {
	Send(m Message) error
}

// SMTPSender hands the message to an SMTP relay, unauthenticated.
type SMTPSender struct {
	Addr string
}

func (s SMTPSender) Send(m Message) error {
	if s.Addr == "" {
		return fmt.Errorf("mail: no smtp address configured")
	}
	if m.To == "" || m.From == "" {
		return fmt.Errorf("mail: to and from are required")
	}
	if err := smtp.SendMail(s.Addr, nil, m.From, []string{m.To}, m.Compose()); err != nil {
		return fmt.Errorf("send mail via %s: %w", s.Addr, err)
	}
	return nil
}

// FileWriter writes the composed message to a .eml file instead of sending,
// for offline inspection.
type FileWriter struct {
	Path string
}

func (f FileWriter) Send(m Message) error {
	if f.Path == "" {
		return fmt.Errorf("mail: no output path")
	}
	if err := os.WriteFile(f.Path, m.Compose(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}
