package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/store"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// addHistoryCommands adds commands reading the SQLite audit store.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query recorded orders and workflow executions",
		Long: `Read the audit store written by 'run' and 'serve' when store.enabled
is set. The store path comes from store.path or --db.`,
	}
	cmd.PersistentFlags().String("db", "", "audit database path (default: store.path)")
	cmd.PersistentFlags().Int("limit", 50, "maximum rows")

	cmd.AddCommand(newHistoryOrdersCmd(app))
	cmd.AddCommand(newHistoryExecutionsCmd(app))
	cmd.AddCommand(newHistoryStatsCmd(app))
	rootCmd.AddCommand(cmd)
}

func openHistory(cmd *cobra.Command, app *App) (*store.SQLiteStore, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = app.Config.Store.Path
	}
	return openStore(path)
}

func orderFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("account", "", "account id")
	cmd.Flags().String("symbol", "", "symbol")
	cmd.Flags().String("status", "", "order status (filled, cancelled, rejected)")
	cmd.Flags().Duration("since", 0, "only orders created within this window")
}

func orderFilter(cmd *cobra.Command) store.OrderFilter {
	account, _ := cmd.Flags().GetString("account")
	symbol, _ := cmd.Flags().GetString("symbol")
	status, _ := cmd.Flags().GetString("status")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")

	f := store.OrderFilter{
		AccountID: account,
		Symbol:    strings.ToUpper(symbol),
		Status:    models.OrderStatus(status),
		Limit:     limit,
	}
	if since > 0 {
		f.StartDate = time.Now().Add(-since)
	}
	return f
}

func newHistoryOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List recorded orders, newest first",
		Example: `  marketsim history orders --status filled
  marketsim history orders --symbol BTCUSD --since 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := openHistory(cmd, app)
			if err != nil {
				return err
			}
			defer st.Close()

			orders, err := st.GetOrders(context.Background(), orderFilter(cmd))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(orders)
			}

			table := NewTable(output, "TIME", "ID", "SYMBOL", "SIDE", "QTY", "TYPE", "STATUS", "FILL", "COMMISSION")
			for _, o := range orders {
				status := string(o.Status)
				switch o.Status {
				case models.OrderFilled:
					status = output.Green(status)
				case models.OrderRejected:
					status = output.Red(status)
				}
				fill := "-"
				if o.FillQuantity > 0 {
					fill = fmt.Sprintf("%v @ %.4f", o.FillQuantity, o.FillPrice)
				}
				table.AddRow(
					FormatDateTime(o.CreatedAt),
					TruncateString(o.ID, 12),
					o.Symbol,
					string(o.Side),
					fmt.Sprintf("%v", o.Quantity),
					string(o.Type),
					status,
					fill,
					utils.FormatCurrency(o.Commission),
				)
			}
			table.Render()
			output.Dim("%d orders", len(orders))
			return nil
		},
	}
	orderFilterFlags(cmd)
	return cmd
}

func newHistoryExecutionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List recorded workflow executions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			workflow, _ := cmd.Flags().GetString("workflow")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := openHistory(cmd, app)
			if err != nil {
				return err
			}
			defer st.Close()

			execs, err := st.GetExecutions(context.Background(), store.ExecutionFilter{
				WorkflowID: workflow,
				Status:     models.ExecutionStatus(status),
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(execs)
			}

			table := NewTable(output, "STARTED", "WORKFLOW", "STATUS", "ACTIONS", "DURATION", "ERROR")
			for _, e := range execs {
				status := string(e.Status)
				if e.Status == models.ExecutionFailed {
					status = output.Red(status)
				}
				dur := "-"
				if e.EndedAt != nil {
					dur = FormatDuration(e.EndedAt.Sub(e.StartedAt))
				}
				table.AddRow(
					FormatDateTime(e.StartedAt),
					e.WorkflowID,
					status,
					fmt.Sprintf("%d", len(e.Results)),
					dur,
					TruncateString(e.Error, 40),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("workflow", "", "workflow id")
	cmd.Flags().String("status", "", "execution status (completed, failed)")
	return cmd
}

func newHistoryStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := openHistory(cmd, app)
			if err != nil {
				return err
			}
			defer st.Close()

			filter := orderFilter(cmd)
			filter.Limit = 0
			stats, err := st.GetOrderStats(context.Background(), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Order Statistics")
			output.Printf("  Total:       %d\n", stats.Total)
			output.Printf("  Filled:      %s\n", output.Green(fmt.Sprintf("%d", stats.Filled)))
			output.Printf("  Rejected:    %s\n", output.Red(fmt.Sprintf("%d", stats.Rejected)))
			output.Printf("  Cancelled:   %d\n", stats.Cancelled)
			output.Printf("  Notional:    %s\n", utils.FormatCurrency(stats.TotalNotional))
			output.Printf("  Commission:  %s\n", utils.FormatCurrency(stats.TotalCommission))
			return nil
		},
	}
	orderFilterFlags(cmd)
	return cmd
}
