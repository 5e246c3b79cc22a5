// Package cli provides the command-line interface for the market simulator.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// from the --config directory before any subcommand runs.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "marketsim",
		Short: "Simulated multi-asset market with paper trading and automation",
		Long: `marketsim generates a continuously moving market for stocks, crypto,
forex, futures and options, fills paper orders against it and runs
rule-based trading workflows on top.

Use 'marketsim run' to start the simulator in the foreground and
'marketsim serve' to expose it over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			app.ConfigDir = dir

			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := logging.DefaultLogConfig()
			logCfg.Level = cfg.Logging.Level
			logCfg.File = cfg.Logging.File
			logCfg.FilePath = cfg.Logging.FilePath
			app.Logger = logging.NewLoggerWithConfig(logCfg)

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			security.LogConfig(app.Logger, *cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/marketsim)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addSimulatorCommands(rootCmd, app)
	addWorkflowCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addMonitoringCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("marketsim v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented marketsim.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteTemplate(app.ConfigDir)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("Configuration written to %s", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(security.RedactConfig(*app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.ConfigDir})
			}
			output.Println(app.ConfigDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Market")
	output.Printf("  Ticker/Candle:   %s / %s\n", cfg.Market.TickerInterval, cfg.Market.CandleInterval)
	output.Printf("  Book/Trades:     %s / %s\n", cfg.Market.BookInterval, cfg.Market.TradeInterval)
	output.Printf("  Candle Bucket:   %s (cap %d)\n", cfg.Market.CandleBucket, cfg.Market.CandleCap)
	output.Printf("  Seed:            %d\n", cfg.Market.Seed)
	if len(cfg.Market.Symbols) > 0 {
		output.Printf("  Symbols:         %v\n", cfg.Market.Symbols)
	}
	output.Println()

	output.Bold("Orders")
	output.Printf("  Latency:         %s - %s\n", cfg.Orders.MinLatency, cfg.Orders.MaxLatency)
	output.Printf("  Initial Cash:    %.2f\n", cfg.Orders.InitialCash)
	output.Printf("  Account Type:    %s\n", cfg.Orders.AccountType)
	output.Println()

	output.Bold("Automation")
	output.Printf("  Enabled:         %v\n", cfg.Automation.Enabled)
	output.Printf("  Poll Interval:   %s\n", cfg.Automation.PollInterval)
	output.Printf("  Actions/sec:     %d\n", cfg.Automation.ActionsPerSecond)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Store:           %v (%s)\n", cfg.Store.Enabled, cfg.Store.Path)
	output.Printf("  Cache:           %s\n", cfg.Cache.Driver)
	if cfg.Cache.Driver == "redis" {
		output.Printf("  Redis:           %s (password %s)\n", cfg.Cache.Addr, security.MaskCredential(cfg.Cache.Password))
	}
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Level:           %s\n", cfg.Notify.Level)
	if cfg.Notify.WebhookURL != "" {
		output.Printf("  Webhook:         %s\n", security.RedactURL(cfg.Notify.WebhookURL))
	} else {
		output.Printf("  Webhook:         %s\n", "none")
	}
}
