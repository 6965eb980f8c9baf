package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/display"
	"github.com/teranos/selor/internal/pipeline"
)

// VocabCmd groups vocabulary commands
var VocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage the word vocabulary of text datasets",
}

var vocabBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the vocabulary from the training file",
	Long: `Tokenize the configured training file and save the vocabulary.

selor pool build does this too. Run it alone to inspect the vocabulary
before mining atoms.`,
	RunE: runVocabBuild,
}

func init() {
	VocabCmd.AddCommand(vocabBuildCmd)
}

func runVocabBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	path, err := src.BuildVocabulary()
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{
			"dataset": src.Info.Name,
			"size":    src.Vocab.Size(),
			"path":    path,
		})
	}
	pterm.Success.Printfln("Vocabulary of %d words written to %s", src.Vocab.Size(), path)
	return nil
}
