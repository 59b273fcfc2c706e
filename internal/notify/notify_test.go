// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rentline/internal/config"
)

type recordingNotifier struct {
	mu   sync.Mutex
	name string
	got  []Notification
	err  error
	done chan struct{}
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, n *Notification) error {
	r.mu.Lock()
	r.got = append(r.got, *n)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func TestNotificationBody(t *testing.T) {
	t.Parallel()

	n := Notification{Text: "New contact", Fields: map[string]string{"name": "Ana", "email": "ana@example.com"}}
	want := "New contact\n\nemail: ana@example.com\nname: Ana"
	if got := n.Body(); got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	t.Parallel()

	ok := &recordingNotifier{name: "ok"}
	bad := &recordingNotifier{name: "bad", err: errors.New("smtp down")}

	err := Multi{ok, bad}.Notify(context.Background(), &Notification{Kind: KindContact})
	if err == nil || !strings.Contains(err.Error(), "bad: smtp down") {
		t.Errorf("err = %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Error("every notifier should be called")
	}
}

func TestDispatcherSendIsAsync(t *testing.T) {
	t.Parallel()

	rec := &recordingNotifier{name: "rec", done: make(chan struct{}, 1)}
	d := NewDispatcher(rec, time.Second)
	d.Send(context.Background(), Notification{Kind: KindViewing, Subject: "Viewing"})

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.got[0].At.IsZero() {
		t.Error("At should be stamped")
	}
}

func TestWebhookNotify(t *testing.T) {
	t.Parallel()

	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client())
	err := wh.Notify(context.Background(), &Notification{
		Kind: KindHandoff, Subject: "Lead wants an agent", Text: "Call them back",
	})
	if err != nil {
		t.Fatal(err)
	}
	if payload["kind"] != "handoff_requested" {
		t.Errorf("kind = %v", payload["kind"])
	}
	if text, _ := payload["text"].(string); !strings.HasPrefix(text, "*Lead wants an agent*") {
		t.Errorf("text = %q", text)
	}
}

func TestWebhookNotifyErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, srv.Client()).Notify(context.Background(), &Notification{Subject: "x"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v", err)
	}
}

func TestEmailBuildMessage(t *testing.T) {
	t.Parallel()

	e := NewEmail(EmailConfig{Host: "smtp.example.com", From: "bot@example.com", To: []string{"a@example.com", "b@example.com"}})
	msg := e.buildMessage(&Notification{
		Kind:    KindContact,
		Subject: "New contact\r\nBcc: evil@example.com",
		Text:    "Hello\nthere",
		At:      time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	})

	if !strings.Contains(msg, "To: a@example.com, b@example.com\r\n") {
		t.Error("missing To header")
	}
	if strings.Contains(msg, "\r\nBcc:") {
		t.Error("subject allowed header injection")
	}
	if !strings.HasSuffix(msg, "Hello\r\nthere\r\n") {
		t.Errorf("body not CRLF-normalized: %q", msg)
	}
}

func TestEmailRequiresRecipients(t *testing.T) {
	t.Parallel()

	e := NewEmail(EmailConfig{Host: "localhost"})
	if err := e.Notify(context.Background(), &Notification{}); err == nil {
		t.Error("expected error without recipients")
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	if _, ok := FromConfig(config.NotifyConfig{}).(Nop); !ok {
		t.Error("empty config should yield Nop")
	}
	n := FromConfig(config.NotifyConfig{
		SMTPHost: "smtp.example.com", EmailTo: []string{"ops@example.com"},
		WebhookURL: "https://hooks.example.com/x",
	})
	m, ok := n.(Multi)
	if !ok || len(m) != 2 || m[0].Name() != "email" || m[1].Name() != "webhook" {
		t.Errorf("FromConfig = %#v", n)
	}
}
