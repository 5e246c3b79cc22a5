package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd(app))
}

type exampleGroup struct {
	Title    string   `json:"title"`
	Commands []string `json:"commands"`
}

var examples = []exampleGroup{
	{
		Title: "Explore the Market",
		Commands: []string{
			"marketsim symbols --asset crypto       # List crypto instruments",
			"marketsim quote AAPL BTCUSD --advance 5m # Quote after 5 simulated minutes",
			"marketsim watch AAPL EURUSD ES-FUT     # Live refreshing price table",
		},
	},
	{
		Title: "Run the Simulator",
		Commands: []string{
			"marketsim run                          # Foreground, with notifications",
			"marketsim run --tickers --duration 1m  # Stream every price update",
			"marketsim serve --addr :9090           # HTTP and WebSocket API",
		},
	},
	{
		Title: "Automation",
		Commands: []string{
			"marketsim workflows list               # Built-in or configured workflows",
			"marketsim workflows check --file my.yaml",
			"marketsim workflows execute wf-btc-dip-buyer",
		},
	},
	{
		Title: "History and Export",
		Commands: []string{
			"marketsim history orders --status filled --since 24h",
			"marketsim history stats                # Totals, notional, commission",
			"marketsim export candles AAPL --limit 500 -o aapl.csv",
			"marketsim export trades BTCUSD         # CSV to stdout",
		},
	},
	{
		Title: "Configuration",
		Commands: []string{
			"marketsim config init                  # Write marketsim.toml",
			"marketsim config show                  # Effective settings, secrets masked",
			"MARKETSIM_MARKET_SEED=7 marketsim run  # Override any key from the environment",
		},
	},
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common command examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(examples)
			}

			for _, ex := range examples {
				output.Bold("%s", ex.Title)
				for _, c := range ex.Commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}
			return nil
		},
	}
}
