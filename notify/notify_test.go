package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kypria/zeus/dbopen"
	"github.com/kypria/zeus/deflect"
	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/store"
	_ "modernc.org/sqlite"
)

func testEvent() Event {
	return Event{
		AlertID:   1,
		Protocol:  "214142",
		Type:      store.AlertDeflection,
		Severity:  deflect.SeverityCritical,
		Message:   "Εντοπίστηκε παράκαμψη: διαβιβάστηκε",
		Excerpt:   "Το αίτημά σας διαβιβάστηκε στην αρμόδια υπηρεσία",
		CreatedAt: time.Unix(1756600000, 0),
	}
}

func TestSlack_PayloadAndColor(t *testing.T) {
	// WHAT: A CRITICAL event produces a red attachment with title and fields.
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	if err := NewSlack(srv.URL).Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	atts := got["attachments"].([]any)
	att := atts[0].(map[string]any)
	if att["color"] != "#FF0000" {
		t.Errorf("color = %v", att["color"])
	}
	if !strings.Contains(att["title"].(string), "214142") {
		t.Errorf("title = %v", att["title"])
	}
}

func TestSlack_HTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL).Send(context.Background(), testEvent())
	var sf *ErrSendFailed
	if !errors.As(err, &sf) || sf.Channel != "slack" {
		t.Fatalf("want ErrSendFailed on slack, got %v", err)
	}
}

func TestDiscord_EmbedColor(t *testing.T) {
	// WHAT: Severity maps to the embed color; unknown severity falls back to
	// the info color instead of failing.
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	evt := testEvent()
	evt.Severity = deflect.Severity("bogus")
	if err := NewDiscord(srv.URL).Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}
	embed := got["embeds"].([]any)[0].(map[string]any)
	if int(embed["color"].(float64)) != 0x36A64F {
		t.Errorf("fallback color = %v", embed["color"])
	}
}

func TestWebhook_SignsBody(t *testing.T) {
	// WHAT: With a secret configured, the signature header verifies against
	// the exact body bytes received.
	const secret = "hmac-key"
	var body []byte
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get("X-Signature-256")
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, secret).Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("signature = %q", sig)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if want := "sha256=" + hex.EncodeToString(mac.Sum(nil)); sig != want {
		t.Errorf("signature mismatch: got %s want %s", sig, want)
	}
}

func TestEmail_TieredRecipients(t *testing.T) {
	// WHAT: Escalation addresses join the recipient list at HIGH and above.
	e := NewEmail(EmailConfig{
		Host: "smtp.example.gr", From: "zeus@example.gr",
		To:           []string{"monitor@example.gr"},
		EscalationCC: []string{"legal@example.gr"},
	})

	if got := e.Recipients(deflect.SeverityWatch); len(got) != 1 {
		t.Errorf("WATCH recipients = %v", got)
	}
	if got := e.Recipients(deflect.SeverityCritical); len(got) != 2 {
		t.Errorf("CRITICAL recipients = %v", got)
	}
}

func TestEmail_ComposeAndSend(t *testing.T) {
	// WHAT: The message carries encoded subject, recipients, and body text.
	e := NewEmail(EmailConfig{
		Host: "smtp.example.gr", Port: 2525, From: "zeus@example.gr",
		To: []string{"monitor@example.gr"},
	})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := e.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.gr:2525" || gotFrom != "zeus@example.gr" {
		t.Errorf("addr=%q from=%q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "monitor@example.gr" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: ") || !strings.Contains(msg, "Protocol: 214142") {
		t.Errorf("message:\n%s", msg)
	}
}

func TestEmail_SendFailure(t *testing.T) {
	e := NewEmail(EmailConfig{Host: "h", From: "f", To: []string{"t"}})
	e.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return fmt.Errorf("connection refused")
	}
	err := e.Send(context.Background(), testEvent())
	var sf *ErrSendFailed
	if !errors.As(err, &sf) || sf.Channel != "email" {
		t.Fatalf("want ErrSendFailed on email, got %v", err)
	}
}

// fakeChannel records sends and optionally fails.
type fakeChannel struct {
	name string
	fail bool
	sent int
}

func (f *fakeChannel) Name() string { return f.name }
func (f *fakeChannel) Send(ctx context.Context, evt Event) error {
	f.sent++
	if f.fail {
		return &ErrSendFailed{Channel: f.name, Cause: fmt.Errorf("boom")}
	}
	return nil
}

func TestDispatcher_PartialFailure(t *testing.T) {
	// WHAT: One failing channel doesn't stop the others, and only successful
	// channels get delivery rows.
	st := store.NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	ctx := context.Background()

	id, err := st.InsertAlert(ctx, &store.Alert{
		ProtocolNumber: "214142", AlertType: store.AlertDeflection,
		Severity: "CRITICAL", Message: "m", CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("insert alert: %v", err)
	}

	ok1 := &fakeChannel{name: "slack"}
	bad := &fakeChannel{name: "discord", fail: true}
	ok2 := &fakeChannel{name: "email"}
	d := NewDispatcher(st)
	d.Register(ok1)
	d.Register(bad)
	d.Register(ok2)

	evt := testEvent()
	evt.AlertID = id
	if err := d.Deliver(ctx, evt); err == nil {
		t.Fatal("expected joined error from failed channel")
	}
	if ok1.sent != 1 || bad.sent != 1 || ok2.sent != 1 {
		t.Errorf("sends: %d %d %d", ok1.sent, bad.sent, ok2.sent)
	}

	chans, err := st.Deliveries(ctx, id)
	if err != nil {
		t.Fatalf("Deliveries: %v", err)
	}
	if len(chans) != 2 {
		t.Errorf("delivery rows = %v, want slack+email only", chans)
	}
	for _, c := range chans {
		if c == "discord" {
			t.Error("failed channel must not be recorded as delivered")
		}
	}
}

func TestDispatcher_CountsDeliveries(t *testing.T) {
	// WHAT: Each send lands in the per-channel outcome counters, successes
	// and failures separately.
	mx := metrics.New()
	d := NewDispatcher(nil, WithMetrics(mx))
	d.Register(&fakeChannel{name: "slack"})
	d.Register(&fakeChannel{name: "discord", fail: true})

	ctx := context.Background()
	d.Deliver(ctx, testEvent())
	d.Deliver(ctx, testEvent())

	if got := testutil.ToFloat64(mx.DeliveriesTotal.WithLabelValues("slack")); got != 2 {
		t.Errorf("slack deliveries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mx.DeliveryErrors.WithLabelValues("discord")); got != 2 {
		t.Errorf("discord delivery errors = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mx.DeliveriesTotal.WithLabelValues("discord")); got != 0 {
		t.Errorf("discord deliveries = %v, want 0", got)
	}
}

func TestEventTitle(t *testing.T) {
	got := testEvent().Title()
	if got != "[CRITICAL] Protocol 214142: deflection" {
		t.Errorf("title = %q", got)
	}
}
