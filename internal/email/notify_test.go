package email

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/yogadesk/internal/models"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
	ctxErr    error
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{recipient: recipient, subject: subject, body: body, ctxErr: ctx.Err()})
	return nil
}

func TestBuildStatusEmail(t *testing.T) {
	msg := BuildStatusEmail(StatusDetails{
		StudioName:  "Lotus Studio",
		ClientName:  "Amy",
		ServiceName: "Hatha Yoga",
		Date:        "2025-04-01",
		Time:        "09:00",
		Status:      models.StatusApprove,
	})
	if msg.Subject != "Booking Approve - Lotus Studio" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"Hello Amy,",
		"Your Hatha Yoga booking has been approved.",
		"Date: Tuesday, Apr 1, 2025",
		"Time: 09:00",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestBuildStatusEmailDefaults(t *testing.T) {
	msg := BuildStatusEmail(StatusDetails{Status: models.StatusDecline})
	for _, want := range []string{"Hello,", "Your session booking has been declined.", "Date: TBD", "contact us"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestNotifyStatusChangeOutlivesCaller(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "Lotus Studio")

	ctx, cancel := context.WithCancel(context.Background())
	booking := models.Booking{
		ID:     "c1",
		Kind:   models.KindClass,
		Client: models.ClientDetails{Name: "Cal", Email: "cal@example.com"},
		Date:   "2025-04-02", StartTime: "07:00", EndTime: "08:00",
	}
	if !notifier.NotifyStatusChange(ctx, booking, models.StatusComplete) {
		t.Fatal("expected a send to be scheduled")
	}
	cancel()
	notifier.Wait()

	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.recipient != "cal@example.com" || got.ctxErr != nil {
		t.Fatalf("sent = %+v", got)
	}
	if !strings.Contains(got.body, "Time: 07:00 - 08:00") {
		t.Fatalf("class booking should use the time range:\n%s", got.body)
	}
}

func TestNotifyStatusChangeSkips(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "Lotus Studio")

	if notifier.NotifyStatusChange(context.Background(), models.Booking{ID: "b1"}, models.StatusApprove) {
		t.Fatal("booking without email should not send")
	}
	withEmail := models.Booking{ID: "b2", Client: models.ClientDetails{Email: "a@example.com"}}
	if notifier.NotifyStatusChange(context.Background(), withEmail, models.StatusPending) {
		t.Fatal("moving back to pending should not send")
	}
	var nilNotifier *Notifier
	if nilNotifier.NotifyStatusChange(context.Background(), withEmail, models.StatusApprove) {
		t.Fatal("nil notifier should not send")
	}
	notifier.Wait()
	if len(sender.sent) != 0 {
		t.Fatalf("unexpected emails: %+v", sender.sent)
	}
}

type requestIDKey struct{}

func TestSendContextKeepsValuesNotCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), requestIDKey{}, "req-7"))
	ctx, stop := sendContext(parent, time.Minute)
	defer stop()
	cancel()

	if ctx.Err() != nil {
		t.Fatalf("send context cancelled with its parent: %v", ctx.Err())
	}
	if got := ctx.Value(requestIDKey{}); got != "req-7" {
		t.Fatalf("request value = %v", got)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("send context has no deadline")
	}
}
