package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/api"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/broker"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/notify"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// addSimulatorCommands adds the long-running simulator commands.
func addSimulatorCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
}

func simulatorFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().StringSlice("symbols", nil, "restrict the simulated symbols")
	cmd.Flags().Bool("no-automation", false, "do not start the workflow engine")
}

// startRuntime applies the simulator flags, wires the runtime with a terminal
// notification sink and starts it.
func startRuntime(ctx context.Context, cmd *cobra.Command, app *App, output *Output) (*Runtime, error) {
	cfg := *app.Config
	if symbols, _ := cmd.Flags().GetStringSlice("symbols"); len(symbols) > 0 {
		for i, s := range symbols {
			symbols[i] = strings.ToUpper(s)
		}
		cfg.Market.Symbols = symbols
	}
	if off, _ := cmd.Flags().GetBool("no-automation"); off {
		cfg.Automation.Enabled = false
	}

	rt, err := NewRuntime(&cfg, nil, app.Logger)
	if err != nil {
		return nil, err
	}
	if !output.IsJSON() {
		rt.Notifier.AddChannel(notify.NewTerminalNotifier(output.Writer(), output.ColorEnabled()))
	}
	rt.Start(ctx)
	return rt, nil
}

// runContext ends on SIGINT/SIGTERM or after --duration.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	if d, _ := cmd.Flags().GetDuration("duration"); d > 0 {
		tctx, cancel := context.WithTimeout(ctx, d)
		return tctx, func() { cancel(); stop() }
	}
	return ctx, stop
}

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulator in the foreground",
		Long: `Start the market generator, the paper order engine and the workflow
engine. Fills, rejections and workflow notifications are printed as they
happen; --tickers also streams every price update.`,
		Example: `  marketsim run
  marketsim run --symbols AAPL,BTCUSD --tickers --duration 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := runContext(cmd)
			defer cancel()

			rt, err := startRuntime(ctx, cmd, app, output)
			if err != nil {
				return err
			}

			if tickers, _ := cmd.Flags().GetBool("tickers"); tickers {
				var mu sync.Mutex
				rt.Hub.Subscribe(stream.TickerAll, func(payload any) {
					t, ok := payload.(models.Ticker)
					if !ok {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					output.Println(tickerLine(output, t))
				})
			}

			if !output.IsJSON() {
				output.Info("Simulating %d symbols, press Ctrl+C to stop", rt.Registry.Len())
			}
			<-ctx.Done()

			summary := summarize(rt)
			closeErr := rt.Close()
			if output.IsJSON() {
				if err := output.JSON(summary); err != nil {
					return err
				}
			} else {
				displaySummary(output, summary)
			}
			return closeErr
		},
	}

	simulatorFlags(cmd)
	cmd.Flags().Bool("tickers", false, "print every ticker update")
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator behind the HTTP and WebSocket API",
		Example: `  marketsim serve
  marketsim serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := runContext(cmd)
			defer cancel()

			rt, err := startRuntime(ctx, cmd, app, output)
			if err != nil {
				return err
			}

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			srv := api.NewServer(api.Config{
				Market:    rt.Market,
				Broker:    rt.Broker,
				Workflows: rt.Automation,
				Hub:       rt.Hub,
				Logger:    app.Logger,
			})
			if !output.IsJSON() {
				output.Info("Serving on %s", addr)
			}
			serveErr := srv.Run(ctx, addr)
			if closeErr := rt.Close(); serveErr == nil {
				serveErr = closeErr
			}
			return serveErr
		},
	}

	simulatorFlags(cmd)
	cmd.Flags().String("addr", "", "listen address (default: server.addr from config)")
	return cmd
}

func tickerLine(output *Output, t models.Ticker) string {
	return fmt.Sprintf("%s  %-12s %14s  %s",
		output.DimText(t.UpdatedAt.Format("15:04:05")),
		t.Symbol,
		fmt.Sprintf("%.4f", t.Price),
		output.Signed(t.Change, utils.FormatPercent(t.ChangePercent)),
	)
}

// RunSummary is printed when the simulator stops.
type RunSummary struct {
	Account   models.TradingAccount  `json:"account"`
	PnL       float64                `json:"pnl"`
	Orders    map[string]int         `json:"orders"`
	Workflows models.WorkflowMetrics `json:"workflows"`
	Published uint64                 `json:"published"`
}

func summarize(rt *Runtime) RunSummary {
	s := RunSummary{Orders: make(map[string]int)}
	s.Account, _ = rt.Broker.Account(broker.DefaultAccountID)
	s.PnL = s.Account.TotalValue - rt.Config.Orders.InitialCash
	for _, o := range rt.Broker.Orders(broker.DefaultAccountID) {
		s.Orders[string(o.Status)]++
	}
	s.Workflows = rt.Automation.Metrics()
	s.Published = rt.Hub.Metrics().Published
	return s
}

func displaySummary(output *Output, s RunSummary) {
	output.Println()
	output.Bold("Session Summary")
	output.Printf("  Account Value:   %s\n", utils.FormatCurrency(s.Account.TotalValue))
	output.Printf("  P&L:             %s\n", output.Signed(s.PnL, utils.FormatPnL(s.PnL)))
	output.Printf("  Cash:            %s\n", utils.FormatCurrency(s.Account.CashBalance))
	output.Printf("  Positions:       %d\n", len(s.Account.Positions))
	for status, n := range s.Orders {
		output.Printf("  Orders %-9s %d\n", status+":", n)
	}
	output.Printf("  Executions:      %d (%.1f%% success)\n", s.Workflows.TotalExecutions, s.Workflows.SuccessRate*100)
	output.Dim("  %d hub messages published", s.Published)
}
