package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/display"
	"github.com/teranos/selor/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage selor configuration",
	Long: `am - Manage selor configuration ("I am")

Display and manage selor configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (SELOR_* prefix)
2. Project config (selor.toml, searched upward from the working directory)
3. User config (~/.selor/selor.toml)
4. System config (/etc/selor/selor.toml)
5. Default values

Examples:
  selor am show                          # Show current configuration
  selor am show --format json            # Show configuration in JSON format
  selor am get pool.num_atoms            # Get specific config value
  selor am set dataset.name adult        # Write a value to the project config
  selor am init                          # Write selor.toml with every default
  selor am validate                      # Validate current configuration
  selor am where                         # Show where each value comes from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective selor configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., dataset.name, pool.num_atoms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the project config",
	Long: `Write a configuration value to the project selor.toml.

The previous file is kept as selor.toml.back1 (up to three backups).`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a selor.toml holding every default",
	RunE:  runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade: the files that were checked and
the source each effective value came from.`,
	RunE: runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", am.FormatTOML, "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := am.RenderEffective(configFormat)
	if err != nil {
		return err
	}
	if configFormat != am.FormatJSON {
		fmt.Println("# selor configuration")
	}
	fmt.Print(string(data))
	if configFormat == am.FormatJSON {
		fmt.Println()
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	value, err := am.Describe(args[0])
	if err != nil {
		return errors.WithHint(err, "list the known keys with `selor am where`")
	}
	fmt.Println(value)
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, err := am.Set(args[0], args[1])
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s = %s written to %s", args[0], args[1], path)
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(am.ConfigFileName); err == nil {
		pterm.Warning.Printfln("%s exists, previous version kept as %s.back1", am.ConfigFileName, am.ConfigFileName)
	}
	if err := am.WriteDefaults(am.ConfigFileName); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s", am.ConfigFileName)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	introspection, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(introspection)
	}

	for _, f := range introspection.Files {
		status := "missing"
		if f.Exists {
			status = "loaded"
		}
		pterm.Info.Printfln("%-8s %-8s %s", f.Source, status, f.Path)
	}
	pterm.Println()

	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range introspection.Settings {
		rows = append(rows, []string{s.Key, fmt.Sprintf("%v", s.Value), string(s.Source), s.SourcePath})
	}
	if err := display.PrintTable(rows); err != nil {
		return err
	}
	for _, source := range []am.ConfigSource{am.SourceDefault, am.SourceSystem, am.SourceUser, am.SourceProject, am.SourceEnvironment} {
		if n := introspection.BySource[source]; n > 0 {
			pterm.Printfln("  %s: %d", source, n)
		}
	}
	return nil
}
