package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// addMonitoringCommands adds live monitoring commands.
func addMonitoringCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [symbol...]",
		Short: "Watch live prices in a refreshing table",
		Long: `Run the market generator without automation and redraw a price table
every --interval. With no symbols every configured instrument is shown.`,
		Example: `  marketsim watch
  marketsim watch AAPL BTCUSD EURUSD --interval 500ms
  marketsim watch --count 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			interval, _ := cmd.Flags().GetDuration("interval")
			count, _ := cmd.Flags().GetInt("count")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}

			cfg := *app.Config
			cfg.Automation.Enabled = false
			if len(args) > 0 {
				symbols := make([]string, len(args))
				for i, s := range args {
					symbols[i] = strings.ToUpper(s)
				}
				cfg.Market.Symbols = symbols
			}

			ctx, cancel := runContext(cmd)
			defer cancel()

			rt, err := NewRuntime(&cfg, nil, app.Logger)
			if err != nil {
				return err
			}
			rt.Start(ctx)
			defer rt.Close()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for frame := 1; ; frame++ {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				tickers := rt.Market.Tickers()
				if output.IsJSON() {
					if err := output.JSON(tickers); err != nil {
						return err
					}
				} else {
					if output.ColorEnabled() {
						output.Printf("\033[H\033[2J")
					}
					renderWatch(output, tickers)
				}
				if count > 0 && frame >= count {
					return nil
				}
			}
		},
	}

	cmd.Flags().Duration("interval", time.Second, "refresh interval")
	cmd.Flags().Int("count", 0, "stop after this many frames (0 = until interrupted)")
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = until interrupted)")
	return cmd
}

func renderWatch(output *Output, tickers []models.Ticker) {
	table := NewTable(output, "SYMBOL", "LAST", "CHANGE", "HIGH", "LOW", "VOLUME", "UPDATED")
	for _, t := range tickers {
		table.AddRow(
			t.Symbol,
			fmt.Sprintf("%.4f", t.Price),
			output.Signed(t.Change, FormatChange(t.Change, t.ChangePercent)),
			fmt.Sprintf("%.4f", t.High24h),
			fmt.Sprintf("%.4f", t.Low24h),
			FormatVolume(t.Volume24h),
			t.UpdatedAt.Format("15:04:05"),
		)
	}
	table.Render()
	output.Dim("%d symbols, press Ctrl+C to stop", len(tickers))
}
