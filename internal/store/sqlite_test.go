package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

var base = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(MemoryPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func filledOrder(id, symbol string, qty, price float64, at time.Time) *models.TradingOrder {
	filled := at.Add(750 * time.Millisecond)
	return &models.TradingOrder{
		ID:           id,
		AccountID:    "default",
		Symbol:       symbol,
		AssetClass:   models.AssetStock,
		Side:         models.OrderSideBuy,
		Type:         models.OrderTypeMarket,
		Quantity:     qty,
		TimeInForce:  models.TIFGTC,
		Status:       models.OrderFilled,
		FillPrice:    price,
		FillQuantity: qty,
		Commission:   1,
		Metadata:     map[string]string{"workflow_id": "wf-1"},
		CreatedAt:    at,
		UpdatedAt:    filled,
		FilledAt:     &filled,
	}
}

func TestSaveOrderRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := filledOrder("o-1", "AAPL", 10, 101, base)
	if err := s.SaveOrder(ctx, want); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	got, err := s.GetOrder(ctx, "o-1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Symbol != "AAPL" || got.Status != models.OrderFilled || got.FillPrice != 101 ||
		got.Side != models.OrderSideBuy || got.TimeInForce != models.TIFGTC {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.FilledAt == nil || !got.FilledAt.Equal(*want.FilledAt) {
		t.Errorf("timestamps: created=%v filled=%v", got.CreatedAt, got.FilledAt)
	}
	if got.Metadata["workflow_id"] != "wf-1" {
		t.Errorf("metadata = %v", got.Metadata)
	}
}

func TestSaveOrderReplacesPriorState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o := &models.TradingOrder{
		ID: "o-1", AccountID: "default", Symbol: "AAPL", AssetClass: models.AssetStock,
		Side: models.OrderSideSell, Type: models.OrderTypeLimit, Quantity: 5, LimitPrice: 120,
		TimeInForce: models.TIFDay, Status: models.OrderPending, CreatedAt: base, UpdatedAt: base,
	}
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatal(err)
	}
	o.Status = models.OrderCancelled
	o.Reason = "expired at session close"
	o.UpdatedAt = base.Add(time.Hour)
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatal(err)
	}

	orders, err := s.GetOrders(ctx, OrderFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].Status != models.OrderCancelled || orders[0].Reason != "expired at session close" {
		t.Errorf("got %+v", orders[0])
	}
	if orders[0].Metadata != nil || orders[0].FilledAt != nil {
		t.Errorf("unexpected metadata %v / filledAt %v", orders[0].Metadata, orders[0].FilledAt)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetOrder(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestGetOrdersFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, sym := range []string{"AAPL", "MSFT", "AAPL", "BTCUSD"} {
		o := filledOrder(fmt.Sprintf("o-%d", i), sym, 1, 100, base.Add(time.Duration(i)*time.Minute))
		if sym == "MSFT" {
			o.Status = models.OrderRejected
			o.FilledAt = nil
			o.Reason = "no market data"
		}
		if sym == "BTCUSD" {
			o.AccountID = "crypto"
		}
		if err := s.SaveOrder(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{"all newest first", OrderFilter{}, []string{"o-3", "o-2", "o-1", "o-0"}},
		{"symbol", OrderFilter{Symbol: "AAPL"}, []string{"o-2", "o-0"}},
		{"status", OrderFilter{Status: models.OrderRejected}, []string{"o-1"}},
		{"account", OrderFilter{AccountID: "crypto"}, []string{"o-3"}},
		{"date range", OrderFilter{StartDate: base.Add(time.Minute), EndDate: base.Add(2 * time.Minute)}, []string{"o-2", "o-1"}},
		{"limit", OrderFilter{Limit: 2}, []string{"o-3", "o-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := s.GetOrders(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, o := range orders {
				ids = append(ids, o.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestGetOrderStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveOrder(ctx, filledOrder("o-1", "AAPL", 10, 100, base))
	s.SaveOrder(ctx, filledOrder("o-2", "AAPL", 5, 200, base))
	rejected := filledOrder("o-3", "AAPL", 5, 0, base)
	rejected.Status = models.OrderRejected
	rejected.Commission = 0
	rejected.FillQuantity = 0
	s.SaveOrder(ctx, rejected)

	stats, err := s.GetOrderStats(ctx, OrderFilter{Symbol: "AAPL"})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Filled != 2 || stats.Rejected != 1 || stats.Cancelled != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalCommission != 2 || stats.TotalNotional != 2000 {
		t.Errorf("commission=%v notional=%v", stats.TotalCommission, stats.TotalNotional)
	}
}

func TestSaveExecutionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ended := base.Add(2 * time.Second)
	execs := []*models.WorkflowExecution{
		{
			ID: "ex-1", WorkflowID: "wf-1", TriggerID: "t-1", Status: models.ExecutionCompleted,
			StartedAt: base, EndedAt: &ended,
			Results: []models.ActionResult{
				{ActionID: "a-1", Kind: models.ActionPlaceOrder, Status: models.ExecutionCompleted, Result: "order o-1 placed"},
				{ActionID: "a-2", Kind: models.ActionSendNotification, Status: models.ExecutionFailed, Error: "boom"},
			},
		},
		{
			ID: "ex-2", WorkflowID: "wf-1", TriggerID: "t-1", Status: models.ExecutionFailed,
			StartedAt: base.Add(time.Minute), EndedAt: &ended, Error: "action panicked",
			Results: []models.ActionResult{},
		},
		{
			ID: "ex-3", WorkflowID: "wf-2", TriggerID: "t-9", Status: models.ExecutionCompleted,
			StartedAt: base.Add(2 * time.Minute), Results: []models.ActionResult{},
		},
	}
	for _, e := range execs {
		if err := s.SaveExecution(ctx, e); err != nil {
			t.Fatalf("SaveExecution: %v", err)
		}
	}

	got, err := s.GetExecutions(ctx, ExecutionFilter{WorkflowID: "wf-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "ex-2" || got[1].ID != "ex-1" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Error != "action panicked" {
		t.Errorf("error = %q", got[0].Error)
	}
	first := got[1]
	if len(first.Results) != 2 || first.Results[1].Error != "boom" || first.Results[0].Kind != models.ActionPlaceOrder {
		t.Errorf("results = %+v", first.Results)
	}
	if first.EndedAt == nil || !first.EndedAt.Equal(ended) {
		t.Errorf("endedAt = %v", first.EndedAt)
	}

	failed, err := s.GetExecutions(ctx, ExecutionFilter{Status: models.ExecutionFailed})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].ID != "ex-2" {
		t.Errorf("failed = %+v", failed)
	}

	all, _ := s.GetExecutions(ctx, ExecutionFilter{Limit: 1})
	if len(all) != 1 || all[0].ID != "ex-3" || all[0].EndedAt != nil {
		t.Errorf("limit = %+v", all)
	}
}

func TestFileBackedStoreReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveOrder(ctx, filledOrder("o-1", "AAPL", 1, 100, base)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.GetOrder(ctx, "o-1"); err != nil {
		t.Errorf("order lost after reopen: %v", err)
	}
}

// Property: Saving an order and reading it back preserves quantities,
// prices and timestamps.
func TestProperty_OrderRoundTrip(t *testing.T) {
	s := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "BTCUSD", "EURUSD", "ES-FUT"}
	seq := 0

	properties.Property("Order round-trip: save then get produces equivalent data", prop.ForAll(
		func(symbolIdx int, qty float64, price float64, offsetMs int64) bool {
			ctx := context.Background()
			seq++
			at := base.Add(time.Duration(offsetMs) * time.Millisecond)
			want := filledOrder(fmt.Sprintf("p-%d", seq), symbols[symbolIdx], qty, price, at)

			if err := s.SaveOrder(ctx, want); err != nil {
				t.Logf("SaveOrder: %v", err)
				return false
			}
			got, err := s.GetOrder(ctx, want.ID)
			if err != nil {
				t.Logf("GetOrder: %v", err)
				return false
			}
			return got.Symbol == want.Symbol &&
				got.Quantity == want.Quantity &&
				got.FillPrice == want.FillPrice &&
				got.CreatedAt.Equal(want.CreatedAt) &&
				got.FilledAt != nil && got.FilledAt.Equal(*want.FilledAt)
		},
		gen.IntRange(0, len(symbols)-1),
		gen.Float64Range(0.0001, 10000),
		gen.Float64Range(0.01, 100000),
		gen.Int64Range(0, 86_400_000),
	))

	properties.TestingRun(t)
}
