package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/selor/cmd/selor/commands"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/logger"
)

var rootCmd = &cobra.Command{
	Use:   "selor",
	Short: "selor - atom pools and antecedent explanations for text and tabular models",
	Long: `selor - Self-explaining rule atoms.

selor builds pools of atomic boolean conditions over a dataset's features
and turns a model's chosen antecedents into readable explanations.

Available commands:
  am      - Manage selor configuration ("I am")
  vocab   - Build the word vocabulary of a text dataset
  pool    - Build, inspect and store atom pools
  embed   - Aggregate per-sample embeddings into atom embeddings
  explain - Render model outputs as rule explanations
  db      - Inspect the selor database

Examples:
  selor am show                              # Show current configuration
  selor pool build                           # Build the configured atom pool
  selor pool build --show-atoms              # ... and list every atom
  selor explain --outputs outputs.json       # Explain model outputs
  selor explain top <run-id>                 # Most used antecedents of a run`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results and logs as JSON")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VocabCmd)
	rootCmd.AddCommand(commands.PoolCmd)
	rootCmd.AddCommand(commands.EmbedCmd)
	rootCmd.AddCommand(commands.ExplainCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
