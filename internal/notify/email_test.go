package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

func emailConfig() models.NotifyConfig {
	return models.NotifyConfig{
		Emails:       []string{"ops@example.com", "lead@example.com"},
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPFrom:     "monitor@example.com",
		SMTPUsername: "monitor",
		SMTPPassword: "hunter2",
	}
}

func TestEmailNotifier_SendsMail(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	orig := sendMail
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}
	t.Cleanup(func() { sendMail = orig })

	n := NewEmailNotifier(emailConfig())
	if err := n.Notify(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotAuth == nil {
		t.Error("expected PLAIN auth when a username is configured")
	}
	if gotFrom != "monitor@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 2 || gotTo[0] != "ops@example.com" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"From: monitor@example.com\r\n",
		"To: ops@example.com, lead@example.com\r\n",
		"Subject: KPI alert: 3 violations across 2 sources\r\n",
		"KPI monitoring run run-1",
		"[CRITICAL] Revenue = 25000, threshold 50000, row 2",
		"[LOW] Units Sold = 1100, threshold 1200, row 3",
		"apac: connection refused",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q", want)
		}
	}
}

func TestEmailNotifier_NoAuthWithoutUsername(t *testing.T) {
	var gotAuth smtp.Auth
	authSeen := false
	orig := sendMail
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAuth, authSeen = a, true
		return nil
	}
	t.Cleanup(func() { sendMail = orig })

	cfg := emailConfig()
	cfg.SMTPUsername = ""
	if err := NewEmailNotifier(cfg).Notify(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !authSeen {
		t.Fatal("expected a send")
	}
	if gotAuth != nil {
		t.Error("expected nil auth without a username")
	}
}

func TestEmailNotifier_EmptySummary(t *testing.T) {
	called := false
	orig := sendMail
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}
	t.Cleanup(func() { sendMail = orig })

	n := NewEmailNotifier(emailConfig())
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify(context.Background(), &models.EvaluationSummary{Checked: 2}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no mail for an empty summary")
	}
}

func TestEmailNotifier_SendFailure(t *testing.T) {
	orig := sendMail
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection reset")
	}
	t.Cleanup(func() { sendMail = orig })

	err := NewEmailNotifier(emailConfig()).Notify(context.Background(), sampleSummary())
	if err == nil || !strings.Contains(err.Error(), "sending alert email") {
		t.Fatalf("expected a wrapped send error, got %v", err)
	}
}

func TestEmailNotifier_FailureOnlySubject(t *testing.T) {
	var gotMsg []byte
	orig := sendMail
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = msg
		return nil
	}
	t.Cleanup(func() { sendMail = orig })

	summary := &models.EvaluationSummary{
		RunID:    "run-2",
		Checked:  1,
		Failures: []models.FetchFailure{{SourceName: "apac", Reason: "HTTP 503"}},
	}
	if err := NewEmailNotifier(emailConfig()).Notify(context.Background(), summary); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(gotMsg), "Subject: KPI monitor: 1 sources unreachable\r\n") {
		t.Errorf("unexpected subject in: %s", gotMsg)
	}
}
