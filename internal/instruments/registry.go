// Package instruments provides the immutable instrument registry.
package instruments

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// Registry is the per-symbol configuration table. It is built once and never
// mutated afterwards, so concurrent reads need no locking.
type Registry struct {
	bySymbol map[string]models.InstrumentConfig
	symbols  []string
}

// New builds a registry from entries, resolving the derivative kind of every
// symbol. now anchors the expiry of dated futures.
func New(entries []models.InstrumentConfig, now time.Time) (*Registry, error) {
	r := &Registry{bySymbol: make(map[string]models.InstrumentConfig, len(entries))}

	for _, e := range entries {
		if e.Symbol == "" {
			return nil, fmt.Errorf("instrument with empty symbol")
		}
		if _, dup := r.bySymbol[e.Symbol]; dup {
			return nil, fmt.Errorf("duplicate instrument %s", e.Symbol)
		}
		if e.TickSize <= 0 || e.MinQuantity <= 0 || e.MaxQuantity < e.MinQuantity {
			return nil, fmt.Errorf("instrument %s: invalid tick size or quantity bounds", e.Symbol)
		}
		if !e.AssetClass.Valid() {
			return nil, fmt.Errorf("instrument %s: unknown asset class %q", e.Symbol, e.AssetClass)
		}
		r.bySymbol[e.Symbol] = resolveKind(e, now)
	}

	for _, e := range r.bySymbol {
		if e.Kind == models.KindOption {
			if _, ok := r.bySymbol[e.Option.Underlying]; !ok {
				return nil, fmt.Errorf("option %s: underlying %s not in registry", e.Symbol, e.Option.Underlying)
			}
		}
	}

	r.symbols = make([]string, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		r.symbols = append(r.symbols, sym)
	}
	sort.Strings(r.symbols)
	return r, nil
}

// Default builds the registry from the built-in instrument table.
func Default(now time.Time) *Registry {
	r, err := New(DefaultInstruments(), now)
	if err != nil {
		panic(fmt.Sprintf("built-in instrument table is invalid: %v", err))
	}
	return r
}

// Restrict returns a registry limited to symbols. Option underlyings are
// pulled in automatically. An empty list returns r unchanged.
func (r *Registry) Restrict(symbols []string, now time.Time) (*Registry, error) {
	if len(symbols) == 0 {
		return r, nil
	}

	keep := make(map[string]models.InstrumentConfig)
	for _, sym := range symbols {
		cfg, ok := r.bySymbol[sym]
		if !ok {
			return nil, fmt.Errorf("unknown symbol %s", sym)
		}
		keep[sym] = cfg
		if cfg.Kind == models.KindOption {
			keep[cfg.Option.Underlying] = r.bySymbol[cfg.Option.Underlying]
		}
	}

	entries := make([]models.InstrumentConfig, 0, len(keep))
	for _, cfg := range keep {
		entries = append(entries, cfg)
	}
	return New(entries, now)
}

// Get returns the configuration of symbol.
func (r *Registry) Get(symbol string) (models.InstrumentConfig, bool) {
	cfg, ok := r.bySymbol[symbol]
	return cfg, ok
}

// Symbols returns all symbols in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// Len returns the number of instruments.
func (r *Registry) Len() int {
	return len(r.symbols)
}

// IsTradingOpen reports whether symbol is in session at the given time.
// Crypto trades around the clock; unknown symbols are never open.
func (r *Registry) IsTradingOpen(symbol string, at time.Time) bool {
	cfg, ok := r.bySymbol[symbol]
	if !ok {
		return false
	}
	if cfg.IsCrypto() {
		return true
	}
	return utils.IsSessionOpen(cfg.Hours, at)
}

// resolveKind fills Kind and the derivative spec from the symbol shape.
// Entries that already carry a spec keep it.
func resolveKind(e models.InstrumentConfig, now time.Time) models.InstrumentConfig {
	if opt, ok := ParseOptionSymbol(e.Symbol); ok {
		if e.Option != nil {
			opt.ContractSize = e.Option.ContractSize
		}
		if opt.ContractSize == 0 {
			opt.ContractSize = 100
		}
		e.Kind = models.KindOption
		e.Option = &opt
		return e
	}

	if root, perpetual, ok := ParseFutureSymbol(e.Symbol); ok {
		spec := FuturesSpec(root)
		spec.Perpetual = perpetual
		if !perpetual {
			spec.LastTradingDay = nextQuarterlyExpiry(now)
			spec.Expiration = spec.LastTradingDay
		}
		if e.MarginRequirement > 0 {
			spec.MarginRequirement = e.MarginRequirement
		} else {
			e.MarginRequirement = spec.MarginRequirement
		}
		e.Kind = models.KindFuture
		e.Future = &spec
		return e
	}

	e.Kind = models.KindSpot
	e.Future = nil
	e.Option = nil
	return e
}

// ParseOptionSymbol parses <underlying>-<C|P>-<strike>-<YYYYMMDD>.
func ParseOptionSymbol(symbol string) (models.OptionSpec, bool) {
	parts := strings.Split(symbol, "-")
	if len(parts) != 4 || parts[0] == "" {
		return models.OptionSpec{}, false
	}

	var typ models.OptionType
	switch parts[1] {
	case "C":
		typ = models.OptionCall
	case "P":
		typ = models.OptionPut
	default:
		return models.OptionSpec{}, false
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || strike <= 0 {
		return models.OptionSpec{}, false
	}

	exp, err := time.Parse("20060102", parts[3])
	if err != nil {
		return models.OptionSpec{}, false
	}
	// Options expire at the US equity close.
	exp = exp.Add(21 * time.Hour)

	return models.OptionSpec{
		Underlying: parts[0],
		Type:       typ,
		Strike:     strike,
		Expiration: exp,
	}, true
}

// ParseFutureSymbol recognizes <root>-PERP and <root>-FUT symbols.
func ParseFutureSymbol(symbol string) (root string, perpetual bool, ok bool) {
	switch {
	case strings.HasSuffix(symbol, "-PERP"):
		root = strings.TrimSuffix(symbol, "-PERP")
		return root, true, root != ""
	case strings.HasSuffix(symbol, "-FUT"):
		root = strings.TrimSuffix(symbol, "-FUT")
		return root, false, root != ""
	}
	return "", false, false
}

// nextQuarterlyExpiry returns the third Friday of the next March, June,
// September or December strictly after now.
func nextQuarterlyExpiry(now time.Time) time.Time {
	now = now.UTC()
	y, m := now.Year(), now.Month()
	for i := 0; i < 13; i++ {
		if m%3 == 0 {
			if d := thirdFriday(y, m); d.After(now) {
				return d
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return now.AddDate(0, 3, 0)
}

func thirdFriday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 21, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 14)
}
