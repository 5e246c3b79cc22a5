package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/resilience"
)

var at = time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)

type recordingChannel struct {
	name string
	mu   sync.Mutex
	got  []Notification
	err  error
}

func (r *recordingChannel) Name() string    { return r.name }
func (r *recordingChannel) IsEnabled() bool { return true }

func (r *recordingChannel) Send(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingChannel) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestSendRoutesByChannel(t *testing.T) {
	mn := NewMultiNotifier(config.NotifyConfig{}, zerolog.Nop())
	a := &recordingChannel{name: "alpha"}
	b := &recordingChannel{name: "beta"}
	mn.AddChannel(a)
	mn.AddChannel(b)

	ctx := context.Background()
	mn.Send(ctx, Notification{Type: NotificationWorkflow, Message: "to alpha", Channel: "alpha"})
	mn.Send(ctx, Notification{Type: NotificationWorkflow, Message: "to all"})
	mn.Send(ctx, Notification{Type: NotificationWorkflow, Message: "nowhere", Channel: "sms"})

	if a.count() != 2 || b.count() != 1 {
		t.Errorf("alpha=%d beta=%d, want 2 and 1", a.count(), b.count())
	}
	if a.got[0].Timestamp.IsZero() {
		t.Error("Send should stamp a zero timestamp")
	}
}

func TestSendLevelFilter(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"all", 3},
		{"trades_only", 1},
		{"errors_only", 1},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			mn := NewMultiNotifier(config.NotifyConfig{Level: tt.level}, zerolog.Nop())
			rec := &recordingChannel{name: "rec"}
			mn.AddChannel(rec)

			ctx := context.Background()
			mn.Send(ctx, Notification{Type: NotificationTrade})
			mn.Send(ctx, Notification{Type: NotificationError})
			mn.Send(ctx, Notification{Type: NotificationWorkflow})

			if rec.count() != tt.want {
				t.Errorf("delivered %d, want %d", rec.count(), tt.want)
			}
		})
	}
}

func TestSendCombinesErrors(t *testing.T) {
	mn := NewMultiNotifier(config.NotifyConfig{}, zerolog.Nop())
	mn.AddChannel(&recordingChannel{name: "a", err: errors.New("down")})
	mn.AddChannel(&recordingChannel{name: "b", err: errors.New("timeout")})

	err := mn.Send(context.Background(), Notification{Type: NotificationInfo})
	if err == nil || !strings.Contains(err.Error(), "a: down") || !strings.Contains(err.Error(), "b: timeout") {
		t.Errorf("err = %v", err)
	}
}

func TestWebhookPostsJSON(t *testing.T) {
	var mu sync.Mutex
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, time.Second)
	defer w.Close()

	err := w.Send(context.Background(), Notification{
		Type:      NotificationWorkflow,
		Title:     "Workflow wf-loss-guard",
		Message:   "Unrealized loss above 500",
		Data:      map[string]interface{}{"workflow_id": "wf-loss-guard"},
		Timestamp: at,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if body["type"] != "workflow" || body["message"] != "Unrealized loss above 500" || body["timestamp"] != "2024-03-13T15:04:05Z" {
		t.Errorf("body = %v", body)
	}
	if data, _ := body["data"].(map[string]interface{}); data["workflow_id"] != "wf-loss-guard" {
		t.Errorf("data = %v", body["data"])
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, time.Second)
	defer w.Close()

	err := w.Send(context.Background(), Notification{Timestamp: at})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want status 502", err)
	}
}

func TestWebhookBreakerStopsPosting(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, time.Second)
	defer w.Close()

	threshold := resilience.DefaultCircuitBreakerConfig().FailureThreshold
	for i := 0; i < threshold; i++ {
		w.Send(context.Background(), Notification{Timestamp: at})
	}
	err := w.Send(context.Background(), Notification{Timestamp: at})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != threshold {
		t.Errorf("server hit %d times, want %d", hits, threshold)
	}
	if w.Breaker().State() != resilience.CircuitOpen {
		t.Errorf("state = %s", w.Breaker().State())
	}
}

func TestAttachDeliversBusEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	mn := NewMultiNotifier(config.NotifyConfig{}, zerolog.Nop())
	rec := &recordingChannel{name: "log-copy"}
	mn.AddChannel(rec)
	mn.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	mn.Start(ctx)

	bus.Emit(events.OrderFilled{Order: models.TradingOrder{ID: "o-1", Symbol: "AAPL", Side: models.OrderSideBuy, FillQuantity: 10, FillPrice: 101, Commission: 1}})
	bus.Emit(events.OrderRejected{Order: models.TradingOrder{ID: "o-2", Symbol: "AAPL"}, Reason: "no market data"})
	bus.Emit(events.Notification{WorkflowID: "wf-1", Message: "hello", Timestamp: at})
	bus.Emit(events.OrderPlaced{})

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	mn.Wait()

	if rec.count() != 3 {
		t.Fatalf("delivered %d, want 3", rec.count())
	}
	if rec.got[0].Type != NotificationTrade || !strings.Contains(rec.got[0].Message, "$101.00") {
		t.Errorf("fill = %+v", rec.got[0])
	}
	if rec.got[1].Type != NotificationError || rec.got[1].Message != "no market data" {
		t.Errorf("rejection = %+v", rec.got[1])
	}

	mn.Detach()
	if bus.HandlerCount(events.KindOrderFilled) != 0 {
		t.Error("Detach left handlers on the bus")
	}
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	mn := NewMultiNotifier(config.NotifyConfig{}, zerolog.Nop())
	for i := 0; i < defaultQueueSize+3; i++ {
		mn.Enqueue(Notification{Message: "n"})
	}
	if mn.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", mn.Dropped())
	}
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	tn := NewTerminalNotifier(&buf, false)

	tn.Send(context.Background(), FromFill(models.TradingOrder{
		Symbol: "AAPL", Side: models.OrderSideBuy, FillQuantity: 10, FillPrice: 101, Commission: 1, UpdatedAt: at,
	}))

	want := "[15:04:05] TRADE    | Order Filled: buy AAPL | buy 10 AAPL @ $101.00 (commission $1.00)\n"
	if buf.String() != want {
		t.Errorf("got  %q\nwant %q", buf.String(), want)
	}
}

func TestFormatNotificationColor(t *testing.T) {
	n := Notification{Type: NotificationError, Title: "Order Rejected", Timestamp: at}
	plain := FormatNotification(n, false)
	colored := FormatNotification(n, true)
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("plain output has escapes: %q", plain)
	}
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("colored output has no escapes: %q", colored)
	}
}
