package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/display"
	"github.com/teranos/selor/internal/pipeline"
	"github.com/teranos/selor/logger"
)

// ExplainCmd renders model outputs as explanations
var ExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Render model outputs as rule explanations",
	Long: `explain - Turn a model's selected antecedents into readable rules

--outputs is the JSON the model wrote for the test file: per example its id,
predicted class and the ranked antecedents (lists of atom ids). Each
antecedent is described in words and scored by its coverage over the
training file. The report is written as JSON and text under
explain.output_dir and, when explain.store_runs is set, recorded in the
database.

Examples:
  selor explain --outputs outputs.json
  selor explain top <run-id>                 # Most used antecedents of a run
  selor explain show <run-id>                # Every stored explanation of a run`,
	RunE: runExplain,
}

var explainTopCmd = &cobra.Command{
	Use:   "top <run-id>",
	Short: "Most used antecedents of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainTop,
}

var explainShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Stored explanations of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainShow,
}

var (
	explainPoolFlag    string
	explainOutputsFlag string
	topLimitFlag       int
)

func init() {
	ExplainCmd.Flags().StringVar(&explainPoolFlag, "pool", "", "Pool bundle (default: the configured one)")
	ExplainCmd.Flags().StringVar(&explainOutputsFlag, "outputs", "", "Model outputs (default: explain.outputs_path)")
	explainTopCmd.Flags().IntVar(&topLimitFlag, "limit", 10, "Number of antecedents to show")

	ExplainCmd.AddCommand(explainTopCmd)
	ExplainCmd.AddCommand(explainShowCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logger.WithComponent(cmd.Context(), "explain")

	var spinner *pterm.SpinnerPrinter
	if !useJSON {
		spinner, _ = pterm.DefaultSpinner.Start("Explaining model outputs...")
	}
	result, err := pipeline.Explain(ctx, cfg, explainPoolFlag, explainOutputsFlag)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}

	var runID string
	if cfg.Explain.StoreRuns {
		st, database, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		if runID, err = pipeline.RecordRun(ctx, st, result); err != nil {
			return err
		}
	}

	if useJSON {
		return display.OutputJSON(struct {
			*pipeline.ExplainResult
			RunID string `json:"run_id,omitempty"`
		}{result, runID})
	}

	pterm.Success.Printfln("%d examples explained", result.Examples)
	pterm.Info.Printfln("Report: %s", result.TextPath)
	pterm.Info.Printfln("JSON:   %s", result.JSONPath)
	if runID != "" {
		pterm.Info.Printfln("Run %s recorded. Inspect it with `selor explain top %s`", runID, runID)
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputTiming) {
		pterm.Info.Printfln("Explaining time: %s", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	}
	return nil
}

func runExplainTop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	usage, err := st.TopAntecedents(cmd.Context(), args[0], topLimitFlag)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(usage)
	}
	return display.PrintTable(display.UsageRows(usage))
}

func runExplainShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	explanations, err := st.RunExplanations(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(explanations)
	}

	rows := [][]string{{"Example", "Rank", "Label", "Prediction", "Antecedent", "Coverage"}}
	for _, e := range explanations {
		rows = append(rows, []string{
			strconv.Itoa(e.ExampleID),
			strconv.Itoa(e.Rank),
			e.Label,
			e.Prediction,
			e.Description,
			fmt.Sprintf("%.6f", e.Coverage),
		})
	}
	return display.PrintTable(rows)
}
