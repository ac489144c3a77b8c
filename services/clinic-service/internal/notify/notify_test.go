package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/sms"
)

type fakeSender struct {
	to, body string
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg sms.Message) error {
	f.to, f.body = msg.To, msg.Body
	return f.err
}

func (f *fakeSender) ProviderID() string { return "fake" }

type phoneMap map[string]string

func (p phoneMap) PhoneNumber(_ context.Context, id string) (string, error) {
	return p[id], nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatcherSendsSMS(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(nil, sender, phoneMap{"stu-1": "+15550100"}, discardLogger())

	err := d.Deliver(context.Background(), model.Notification{RecipientID: "stu-1", Content: "Your appointment request was approved."})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if sender.to != "+15550100" || !strings.Contains(sender.body, "approved") {
		t.Fatalf("unexpected sms %q %q", sender.to, sender.body)
	}

	sender.to = ""
	if err := d.Deliver(context.Background(), model.Notification{RecipientID: "no-phone"}); err != nil {
		t.Fatalf("missing phone should be skipped, got %v", err)
	}
	if sender.to != "" {
		t.Fatal("sms must not be sent without a phone number")
	}

	sender.err = errors.New("provider down")
	if err := d.Deliver(context.Background(), model.Notification{RecipientID: "stu-1"}); err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestHubStreamsToRecipient(t *testing.T) {
	hub := NewHub(discardLogger(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("account"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?account=stu-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("stu-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(model.Notification{ID: "n-other", RecipientID: "stu-2", Content: "not yours"})
	hub.Publish(model.Notification{ID: "n-1", RecipientID: "stu-1", Type: model.NotificationBookingRejected, Content: "rejected", Status: model.NotificationUnread})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("bad message %s: %v", raw, err)
	}
	if msg.ID != "n-1" || msg.AppointmentID != nil {
		t.Fatalf("unexpected message %+v", msg)
	}
}
