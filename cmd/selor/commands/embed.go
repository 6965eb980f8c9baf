package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/display"
	"github.com/teranos/selor/internal/pipeline"
	"github.com/teranos/selor/logger"
)

// EmbedCmd aggregates per-sample embeddings into atom embeddings
var EmbedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Aggregate training embeddings into one embedding per atom",
	Long: `Average the embeddings of the training samples that satisfy each atom.

--embeddings is a JSON array with one vector per training row, in file order.
The result is a JSON array indexed by atom id; atoms no sample satisfies get
a zero vector.

Examples:
  selor embed --embeddings train_embeddings.json
  selor embed --embeddings train_embeddings.json --out atoms.json`,
	RunE: runEmbed,
}

var (
	embedPoolFlag       string
	embedEmbeddingsFlag string
	embedOutFlag        string
)

func init() {
	EmbedCmd.Flags().StringVar(&embedPoolFlag, "pool", "", "Pool bundle (default: the configured one)")
	EmbedCmd.Flags().StringVar(&embedEmbeddingsFlag, "embeddings", "", "Per-sample training embeddings (JSON)")
	EmbedCmd.Flags().StringVar(&embedOutFlag, "out", "", "Output file (default: <save_dir>/atom_embedding/atom_embedding_<dataset>.json)")
	_ = EmbedCmd.MarkFlagRequired("embeddings")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logger.WithComponent(cmd.Context(), "embed")

	result, err := pipeline.Embed(ctx, cfg, embedPoolFlag, embedEmbeddingsFlag, embedOutFlag)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(result)
	}
	pterm.Success.Printfln("%d atom embeddings of dimension %d written to %s", result.Atoms, result.Dimensions, result.Path)
	return nil
}
