package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	apperrors "github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/market"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// addMarketCommands adds the market snapshot commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSymbolsCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

// snapshotMarket seeds a generator on a logical clock and advances it by
// the --advance flag, so snapshot commands need no running loop.
func snapshotMarket(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger) (*market.Generator, error) {
	advance, _ := cmd.Flags().GetDuration("advance")

	sched := scheduler.NewManual(time.Now())
	gen, err := newMarket(cfg, stream.NewHub(logger), sched, newRand(cfg.Market.Seed), logger)
	if err != nil {
		return nil, err
	}
	if advance > 0 {
		gen.Connect()
		sched.Advance(advance)
		gen.Disconnect()
	}
	return gen, nil
}

func newSymbolsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List simulated instruments",
		Example: `  marketsim symbols
  marketsim symbols --asset crypto`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			asset, _ := cmd.Flags().GetString("asset")

			reg, err := newRegistry(app.Config, time.Now())
			if err != nil {
				return err
			}

			var list []models.InstrumentConfig
			for _, sym := range reg.Symbols() {
				inst, _ := reg.Get(sym)
				if asset != "" && string(inst.AssetClass) != asset {
					continue
				}
				list = append(list, inst)
			}

			if output.IsJSON() {
				return output.JSON(list)
			}

			now := time.Now()
			table := NewTable(output, "SYMBOL", "NAME", "ASSET", "EXCHANGE", "KIND", "TICK", "SESSION")
			for _, inst := range list {
				next := utils.NextSessionOpen(inst.Hours, now)
				session := output.Red("closed, opens " + next.Format("Mon 15:04 MST"))
				if reg.IsTradingOpen(inst.Symbol, now) {
					session = output.Green("open")
				}
				table.AddRow(
					inst.Symbol,
					TruncateString(inst.Name, 28),
					string(inst.AssetClass),
					string(inst.Exchange),
					string(inst.Kind),
					fmt.Sprintf("%g", inst.TickSize),
					session,
				)
			}
			table.Render()
			output.Dim("%d instruments", len(list))
			return nil
		},
	}

	cmd.Flags().String("asset", "", "filter by asset class (stock, crypto, forex, futures, options, etf, bond)")
	return cmd
}

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <symbol>...",
		Short: "Show a simulated quote",
		Long: `Seed the market and print the ticker, 24h stats, top of book and
indicators for each symbol. --advance runs the generator forward on a
logical clock first.`,
		Example: `  marketsim quote AAPL
  marketsim quote BTCUSD ETHUSD --advance 10m`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			gen, err := snapshotMarket(cmd, app.Config, app.Logger)
			if err != nil {
				return err
			}

			var quotes []quoteView
			for _, arg := range args {
				q, err := buildQuote(gen, strings.ToUpper(arg))
				if err != nil {
					return err
				}
				quotes = append(quotes, q)
			}

			if output.IsJSON() {
				return output.JSON(quotes)
			}
			for i, q := range quotes {
				if i > 0 {
					output.Println()
				}
				displayQuote(output, q)
			}
			return nil
		},
	}

	cmd.Flags().Duration("advance", 0, "simulated time to run before the snapshot")
	return cmd
}

type quoteView struct {
	Ticker     models.Ticker              `json:"ticker"`
	Stats      models.Stats24h            `json:"stats"`
	Indicators models.TechnicalIndicators `json:"indicators"`
	BestBid    models.OrderBookLevel      `json:"bestBid"`
	BestAsk    models.OrderBookLevel      `json:"bestAsk"`
	TickSize   float64                    `json:"tickSize"`
}

func buildQuote(gen *market.Generator, symbol string) (quoteView, error) {
	t, ok := gen.Ticker(symbol)
	if !ok {
		return quoteView{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	inst, _ := gen.Registry().Get(symbol)
	q := quoteView{Ticker: t, TickSize: inst.TickSize}
	q.Stats, _ = gen.Stats24h(symbol)
	q.Indicators, _ = gen.Indicators(symbol)
	if ob, ok := gen.OrderBook(symbol); ok {
		if len(ob.Bids) > 0 {
			q.BestBid = ob.Bids[0]
		}
		if len(ob.Asks) > 0 {
			q.BestAsk = ob.Asks[0]
		}
	}
	return q, nil
}

func displayQuote(output *Output, q quoteView) {
	t := q.Ticker
	price := utils.FormatPrice(t.Price, q.TickSize)

	output.Bold("%s", t.Symbol)
	output.Printf("  Last:   %s  %s\n", output.BoldText(price), output.FormatChange(t.Change, t.ChangePercent))
	output.Printf("  High:   %s\n", output.Green(utils.FormatPrice(t.High24h, q.TickSize)))
	output.Printf("  Low:    %s\n", output.Red(utils.FormatPrice(t.Low24h, q.TickSize)))
	output.Printf("  Volume: %s (%d trades)\n", FormatVolume(q.Stats.Volume), q.Stats.TradeCount)
	output.Printf("  Bid:    %s x %s\n", utils.FormatPrice(q.BestBid.Price, q.TickSize), FormatVolume(q.BestBid.Size))
	output.Printf("  Ask:    %s x %s\n", utils.FormatPrice(q.BestAsk.Price, q.TickSize), FormatVolume(q.BestAsk.Size))
	if t.MarketCap > 0 {
		output.Printf("  Cap:    %s\n", utils.FormatCompact(t.MarketCap))
	}

	ind := q.Indicators
	rsi := fmt.Sprintf("%.1f", ind.RSI14)
	switch {
	case ind.RSI14 >= 70:
		rsi = output.Red(rsi)
	case ind.RSI14 <= 30:
		rsi = output.Green(rsi)
	}
	output.Printf("  SMA20:  %.2f  SMA50: %.2f  RSI14: %s  MACD: %s\n",
		ind.SMA20, ind.SMA50, rsi, output.Signed(ind.MACD, fmt.Sprintf("%.4f", ind.MACD)))
	output.Dim("  Updated: %s", FormatDateTime(t.UpdatedAt))
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export simulated market data as CSV",
	}

	candles := &cobra.Command{
		Use:   "candles <symbol>",
		Short: "Export the candle series of a symbol",
		Example: `  marketsim export candles AAPL
  marketsim export candles BTCUSD --limit 500 --advance 2h -o btc.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			gen, err := snapshotMarket(cmd, app.Config, app.Logger)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			series, ok := gen.Candles(symbol, limit)
			if !ok {
				return fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
			}
			return withExportWriter(cmd, func(w io.Writer) error {
				return WriteCandlesCSV(w, series)
			})
		},
	}
	candles.Flags().Int("limit", 0, "number of most recent candles (0 = all)")
	candles.Flags().Duration("advance", 0, "simulated time to run before exporting")
	candles.Flags().StringP("output", "o", "", "output file (default: stdout)")

	trades := &cobra.Command{
		Use:   "trades <symbol>",
		Short: "Export the recent trade tape of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			gen, err := snapshotMarket(cmd, app.Config, app.Logger)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			tape, ok := gen.Trades(symbol, limit)
			if !ok {
				return fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
			}
			return withExportWriter(cmd, func(w io.Writer) error {
				return WriteTradesCSV(w, tape)
			})
		},
	}
	trades.Flags().Int("limit", 0, "number of most recent trades (0 = all)")
	trades.Flags().Duration("advance", 0, "simulated time to run before exporting")
	trades.Flags().StringP("output", "o", "", "output file (default: stdout)")

	cmd.AddCommand(candles, trades)
	return cmd
}

// withExportWriter runs write against the --output file, or stdout.
func withExportWriter(cmd *cobra.Command, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	NewOutput(cmd).Success("Wrote %s", path)
	return nil
}

type candleRow struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

type tradeRow struct {
	Timestamp string  `csv:"timestamp"`
	ID        string  `csv:"id"`
	Side      string  `csv:"side"`
	Price     float64 `csv:"price"`
	Size      float64 `csv:"size"`
}

// WriteCandlesCSV writes candles oldest first with a header row.
func WriteCandlesCSV(w io.Writer, candles []models.Candle) error {
	rows := make([]*candleRow, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, &candleRow{
			Timestamp: c.Timestamp.UTC().Format(time.RFC3339),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return gocsv.Marshal(rows, w)
}

// WriteTradesCSV writes trades in tape order with a header row.
func WriteTradesCSV(w io.Writer, trades []models.Trade) error {
	rows := make([]*tradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, &tradeRow{
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339Nano),
			ID:        t.ID,
			Side:      string(t.Side),
			Price:     t.Price,
			Size:      t.Size,
		})
	}
	return gocsv.Marshal(rows, w)
}
