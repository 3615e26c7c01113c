package mail_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shiftreport/internal/mail"
)

func TestCompose(t *testing.T) {
	msg := mail.Message{
		To:       "oncall@example.com",
		From:     "bot@example.com",
		Subject:  "[shift report] morning",
		HTMLBody: "<html><body>hi</body></html>",
	}
	raw := string(msg.Compose())
	for _, want := range []string{
		"From: bot@example.com\r\n",
		"To: oncall@example.com\r\n",
		"Subject: [shift report] morning\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"\r\n<html><body>hi</body></html>",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("composed message missing %q:\n%s", want, raw)
		}
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.eml")
	msg := mail.Message{To: "a@b", From: "c@d", Subject: "s", HTMLBody: "<p>x</p>"}
	if err := (mail.FileWriter{Path: path}).Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "<p>x</p>") {
		t.Fatalf("eml body missing:\n%s", data)
	}
}

func TestSMTPSenderValidation(t *testing.T) {
	if err := (mail.SMTPSender{}).Send(mail.Message{To: "a@b", From: "c@d"}); err == nil {
		t.Fatalf("expected error for missing smtp address")
	}
	if err := (mail.SMTPSender{Addr: "localhost:25"}).Send(mail.Message{}); err == nil {
		t.Fatalf("expected error for missing addresses")
	}
}
