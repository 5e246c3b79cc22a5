package instruments

import (
	"sort"
	"testing"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

var buildTime = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func TestDefaultRegistry(t *testing.T) {
	r := Default(buildTime)

	syms := r.Symbols()
	if len(syms) != len(DefaultInstruments()) {
		t.Fatalf("Symbols() len = %d, want %d", len(syms), len(DefaultInstruments()))
	}
	if !sort.StringsAreSorted(syms) {
		t.Errorf("Symbols() not sorted: %v", syms)
	}

	if _, ok := r.Get("NOPE"); ok {
		t.Error("Get(NOPE) should miss")
	}
}

func TestResolvedKinds(t *testing.T) {
	r := Default(buildTime)

	aapl, _ := r.Get("AAPL")
	if aapl.Kind != models.KindSpot || aapl.Future != nil || aapl.Option != nil {
		t.Errorf("AAPL kind = %s", aapl.Kind)
	}

	opt, ok := r.Get("AAPL-C-200-20271217")
	if !ok {
		t.Fatal("option missing")
	}
	if opt.Kind != models.KindOption || opt.Option == nil {
		t.Fatalf("option kind = %s", opt.Kind)
	}
	if opt.Option.Underlying != "AAPL" || opt.Option.Type != models.OptionCall || opt.Option.Strike != 200 {
		t.Errorf("option spec = %+v", opt.Option)
	}
	if opt.Option.ContractSize != 100 {
		t.Errorf("contract size = %v, want 100", opt.Option.ContractSize)
	}
	if y, m, d := opt.Option.Expiration.Date(); y != 2027 || m != time.December || d != 17 {
		t.Errorf("expiration = %v", opt.Option.Expiration)
	}

	perp, _ := r.Get("BTC-PERP")
	if perp.Kind != models.KindFuture || perp.Future == nil || !perp.Future.Perpetual {
		t.Fatalf("BTC-PERP = %+v", perp)
	}
	if perp.Future.Underlying != "BTCUSD" {
		t.Errorf("perp underlying = %s", perp.Future.Underlying)
	}

	es, _ := r.Get("ES-FUT")
	if es.Future == nil || es.Future.Perpetual {
		t.Fatalf("ES-FUT = %+v", es)
	}
	if es.Future.ContractSize != 50 || es.MarginRequirement != 0.05 {
		t.Errorf("ES spec = %+v", es.Future)
	}
	// Third Friday of March 2024 is the 15th.
	if y, m, d := es.Future.LastTradingDay.Date(); y != 2024 || m != time.March || d != 15 {
		t.Errorf("last trading day = %v", es.Future.LastTradingDay)
	}
}

func TestParseOptionSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		ok     bool
	}{
		{"SPY-P-480-20270618", true},
		{"SPY-X-480-20270618", false},
		{"SPY-P-abc-20270618", false},
		{"SPY-P-480-2027", false},
		{"BTC-PERP", false},
		{"AAPL", false},
	}
	for _, tt := range tests {
		if _, ok := ParseOptionSymbol(tt.symbol); ok != tt.ok {
			t.Errorf("ParseOptionSymbol(%s) ok = %v, want %v", tt.symbol, ok, tt.ok)
		}
	}
}

func TestFuturesSpecFallback(t *testing.T) {
	spec := FuturesSpec("ZZ")
	if spec.Root != "ZZ" || spec.ContractSize != 1 || spec.TickSize != 0.01 {
		t.Errorf("fallback spec = %+v", spec)
	}
}

func TestIsTradingOpen(t *testing.T) {
	r := Default(buildTime)
	ny := utils.Location("America/New_York")
	saturday := time.Date(2024, 3, 16, 12, 0, 0, 0, ny)
	wednesday := time.Date(2024, 3, 13, 11, 0, 0, 0, ny)

	if !r.IsTradingOpen("BTCUSD", saturday) {
		t.Error("crypto should trade on weekends")
	}
	if r.IsTradingOpen("AAPL", saturday) {
		t.Error("stocks should be closed on weekends")
	}
	if !r.IsTradingOpen("AAPL", wednesday) {
		t.Error("stocks should be open midweek")
	}
	if r.IsTradingOpen("NOPE", wednesday) {
		t.Error("unknown symbols are never open")
	}
}

func TestNewRejectsBadTable(t *testing.T) {
	base := DefaultInstruments()[0]

	if _, err := New([]models.InstrumentConfig{base, base}, buildTime); err == nil {
		t.Error("duplicate symbols should fail")
	}

	orphan := DefaultInstruments()[0]
	orphan.Symbol = "ZZZ-C-10-20271217"
	if _, err := New([]models.InstrumentConfig{orphan}, buildTime); err == nil {
		t.Error("option without underlying should fail")
	}

	bad := base
	bad.MaxQuantity = 0
	if _, err := New([]models.InstrumentConfig{bad}, buildTime); err == nil {
		t.Error("max below min should fail")
	}
}

func TestRestrictPullsUnderlying(t *testing.T) {
	r := Default(buildTime)
	sub, err := r.Restrict([]string{"SPY-P-480-20270618", "BTCUSD"}, buildTime)
	if err != nil {
		t.Fatalf("Restrict() error = %v", err)
	}
	want := []string{"BTCUSD", "SPY", "SPY-P-480-20270618"}
	got := sub.Symbols()
	if len(got) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Symbols()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := r.Restrict([]string{"NOPE"}, buildTime); err == nil {
		t.Error("unknown symbol should fail")
	}
}
