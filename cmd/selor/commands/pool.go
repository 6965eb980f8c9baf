package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/artifact"
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/display"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/internal/pipeline"
	"github.com/teranos/selor/logger"
)

// PoolCmd groups atom pool commands
var PoolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Build, inspect and store atom pools",
	Long: `pool - Atom pool construction and inspection

Examples:
  selor pool build                        # Build the configured pool
  selor pool build --show-atoms           # Build and list every atom
  selor pool show                         # Inspect the configured pool bundle
  selor pool show path/to/bundle.json     # Inspect another bundle
  selor pool list                         # Pools stored in the database
  selor pool export <pool-id>             # Write a stored pool as a bundle
  selor pool export latest                # ... the newest one of the dataset`,
}

var poolBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Construct the atom pool of the configured dataset",
	Long: `Construct the atom pool of the configured dataset.

Text datasets get a fresh vocabulary and the most frequent words as atoms
(pool.num_atoms of them). Tabular datasets get every threshold and category
atom the column schema defines. The pool bundle is written under
pool.save_dir and recorded in the database unless --no-store is given.`,
	RunE: runPoolBuild,
}

var poolShowCmd = &cobra.Command{
	Use:   "show [bundle]",
	Short: "Show the atoms of a pool bundle",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPoolShow,
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pools stored in the database",
	RunE:  runPoolList,
}

var poolExportCmd = &cobra.Command{
	Use:   "export <pool-id|latest> [bundle]",
	Short: "Write a stored pool as a bundle file",
	Long: `Write a stored pool as a bundle file.

"latest" selects the most recently stored pool of the configured dataset.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPoolExport,
}

var (
	showAtomsFlag bool
	noStoreFlag   bool
	atomLimitFlag int
)

func init() {
	poolBuildCmd.Flags().BoolVar(&showAtomsFlag, "show-atoms", false, "List every atom after construction")
	poolBuildCmd.Flags().BoolVar(&noStoreFlag, "no-store", false, "Do not record the pool in the database")
	poolShowCmd.Flags().IntVar(&atomLimitFlag, "limit", 0, "Show at most this many atoms (0 for all)")

	PoolCmd.AddCommand(poolBuildCmd)
	PoolCmd.AddCommand(poolShowCmd)
	PoolCmd.AddCommand(poolListCmd)
	PoolCmd.AddCommand(poolExportCmd)
}

func runPoolBuild(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	v := verbosity(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logger.WithComponent(cmd.Context(), "pool")

	if !useJSON && logger.ShouldOutput(v, logger.OutputConfig) {
		pterm.Info.Printfln("Verbosity: %s", logger.LevelName(v))
		pterm.Info.Printfln("Config: %s", cfg)
	}

	var spinner *pterm.SpinnerPrinter
	if !useJSON {
		spinner, _ = pterm.DefaultSpinner.Start("Constructing atom pool for " + cfg.Dataset.Name + "...")
	}
	result, err := pipeline.BuildPool(ctx, cfg)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}

	if !noStoreFlag {
		if err := storePool(ctx, cfg, result); err != nil {
			return err
		}
	}

	if useJSON {
		return display.OutputJSON(result)
	}

	if logger.ShouldOutput(v, logger.OutputPoolSummary) {
		if err := display.PrintTable(display.KindRows(result.AtomsByKind)); err != nil {
			return err
		}
	}
	if showAtomsFlag || logger.ShouldOutput(v, logger.OutputAtomTable) {
		rows, err := display.AtomRows(result.Pool, result.Describer, 0)
		if err != nil {
			return err
		}
		if err := display.PrintTable(rows); err != nil {
			return err
		}
	}
	if result.MemoryWarning != "" {
		pterm.Warning.Println(result.MemoryWarning)
	}

	pterm.Success.Printfln("%d atoms added", result.AtomCount)
	pterm.Info.Printfln("Building time: %s", result.Duration().Round(time.Millisecond))
	pterm.Info.Printfln("Pool %s written to %s", result.PoolID, result.PoolPath)
	return nil
}

func storePool(ctx context.Context, cfg *am.Config, result *pipeline.BuildResult) error {
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := pipeline.EnsurePool(ctx, st, result.Pool, result.Matrix); err != nil {
		return errors.Wrap(err, "record pool")
	}
	return nil
}

func runPoolShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	_, pool, describer, err := pipeline.ReadPool(cfg, path)
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{
			"pool_id":       pool.ID(),
			"dataset":       pool.Dataset(),
			"modality":      pool.Modality(),
			"atom_count":    pool.Count(),
			"atoms_by_kind": pool.CountByKind(),
			"duplicates":    pool.Duplicates(),
		})
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Pool %s", pool.ID())
	pterm.Println()
	pterm.Info.Printfln("Dataset: %s (%s)", pool.Dataset(), pool.Modality())
	if err := display.PrintTable(display.KindRows(pool.CountByKind())); err != nil {
		return err
	}
	rows, err := display.AtomRows(pool, describer, atomLimitFlag)
	if err != nil {
		return err
	}
	if err := display.PrintTable(rows); err != nil {
		return err
	}
	for _, group := range pool.Duplicates() {
		pterm.Warning.Printfln("Atoms %v share one predicate", group)
	}
	return nil
}

func runPoolList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	pools, err := st.ListPools(cmd.Context())
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(pools)
	}
	if len(pools) == 0 {
		pterm.Info.Println("No pools stored yet. Build one with `selor pool build`.")
		return nil
	}
	return display.PrintTable(display.PoolRows(pools))
}

func runPoolExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var pool *atom.Pool
	if args[0] == "latest" {
		pool, err = st.LatestPool(cmd.Context(), cfg.Dataset.Name)
	} else {
		pool, err = st.LoadPool(cmd.Context(), args[0])
	}
	if err != nil {
		return errors.WithHint(err, "list stored pools with `selor pool list`")
	}

	path := exportPath(cfg.PoolDir(), pool)
	if len(args) == 2 {
		path = args[1]
	}
	if err := artifact.Write(path, pool); err != nil {
		return err
	}
	pterm.Success.Printfln("Pool %s written to %s", pool.ID(), path)
	return nil
}

// exportPath names an exported bundle after its dataset; the quota of a
// text pool is its atom count without the dummy.
func exportPath(dir string, p *atom.Pool) string {
	return filepath.Join(dir, artifact.FileName(p.Dataset(), p.Modality(), p.Count()-1))
}
