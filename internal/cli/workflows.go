package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/automation"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
)

// addWorkflowCommands adds the workflow definition commands.
func addWorkflowCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect and dry-run automation workflows",
	}
	cmd.PersistentFlags().String("file", "", "workflow YAML file (default: automation.workflows_file, else built-in)")

	cmd.AddCommand(newWorkflowsListCmd(app))
	cmd.AddCommand(newWorkflowsCheckCmd(app))
	cmd.AddCommand(newWorkflowsExecuteCmd(app))
	rootCmd.AddCommand(cmd)
}

func workflowsFile(cmd *cobra.Command, app *App) string {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		return path
	}
	return app.Config.Automation.WorkflowsFile
}

func newWorkflowsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			wfs, err := automation.LoadWorkflows(workflowsFile(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(wfs)
			}

			table := NewTable(output, "ID", "NAME", "ACTIVE", "TRIGGERS", "ACTIONS")
			for _, wf := range wfs {
				active := output.Red("no")
				if wf.Active {
					active = output.Green("yes")
				}
				table.AddRow(wf.ID, TruncateString(wf.Name, 32), active, triggerKinds(wf), actionKinds(wf))
			}
			table.Render()
			return nil
		},
	}
}

func triggerKinds(wf models.AutomationWorkflow) string {
	kinds := make([]string, 0, len(wf.Triggers))
	for _, t := range wf.Triggers {
		kinds = append(kinds, string(t.Kind))
	}
	return strings.Join(kinds, ",")
}

func actionKinds(wf models.AutomationWorkflow) string {
	kinds := make([]string, 0, len(wf.Actions))
	for _, a := range wf.Actions {
		kinds = append(kinds, string(a.Kind))
	}
	return strings.Join(kinds, ",")
}

func newWorkflowsCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			wfs, err := automation.LoadWorkflows(workflowsFile(cmd, app))
			if err != nil {
				return err
			}
			if err := automation.ValidateWorkflows(wfs); err != nil {
				output.Error("Workflow validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"valid": true, "workflows": len(wfs)})
			}
			output.Success("%d workflows are valid", len(wfs))
			return nil
		},
	}
}

func newWorkflowsExecuteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <workflow-id>",
		Short: "Dry-run one workflow against a fresh simulated market",
		Long: `Seed the market on a logical clock, run every action of the workflow
once and settle any orders it placed. Nothing is persisted unless the
store is enabled in the configuration.`,
		Example: `  marketsim workflows execute wf-btc-dip-buyer`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			settle, _ := cmd.Flags().GetDuration("settle")

			cfg := *app.Config
			cfg.Automation.WorkflowsFile = workflowsFile(cmd, app)

			sched := scheduler.NewManual(time.Now())
			rt, err := NewRuntime(&cfg, sched, app.Logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			exec, err := rt.Automation.Execute(context.Background(), args[0], "")
			if err != nil {
				return err
			}
			sched.Advance(settle)

			if output.IsJSON() {
				return output.JSON(exec)
			}
			displayExecution(output, exec)
			for _, o := range rt.Broker.Orders("") {
				line := fmt.Sprintf("  order %s %s %v %s: %s", o.ID, o.Side, o.Quantity, o.Symbol, o.Status)
				if o.Reason != "" {
					line += " (" + o.Reason + ")"
				}
				output.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().Duration("settle", 5*time.Second, "simulated time allowed for placed orders to resolve")
	return cmd
}

func displayExecution(output *Output, exec *models.WorkflowExecution) {
	status := string(exec.Status)
	if exec.Status == models.ExecutionCompleted {
		status = output.Green(status)
	} else {
		status = output.Red(status)
	}
	output.Bold("Execution %s", exec.ID)
	output.Printf("  Workflow: %s\n", exec.WorkflowID)
	output.Printf("  Status:   %s\n", status)
	if exec.Error != "" {
		output.Printf("  Error:    %s\n", exec.Error)
	}
	for _, r := range exec.Results {
		line := fmt.Sprintf("  - %s [%s] %s", r.ActionID, r.Kind, r.Status)
		if r.Error != "" {
			line += ": " + r.Error
		}
		output.Println(line)
	}
}
