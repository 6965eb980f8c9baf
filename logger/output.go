package logger

// Output controls what categories of information the CLI prints at each
// verbosity level, independently of log severity.
//
// Verbosity Levels:
//
//	0 (default) - results, errors with hints, final status
//	1 (-v)      - + progress, pool summaries
//	2 (-vv)     - + timing, config loaded, full atom tables

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Command output: reports, tables requested explicitly
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v)
	OutputProgress    // Progress indicators
	OutputPoolSummary // Atom counts per kind after construction

	// Level 2 (-vv)
	OutputTiming    // Build and explanation timing
	OutputConfig    // Config values loaded
	OutputAtomTable // Full atom listing after construction
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress:    VerbosityInfo,
	OutputPoolSummary: VerbosityInfo,

	OutputTiming:    VerbosityDebug,
	OutputConfig:    VerbosityDebug,
	OutputAtomTable: VerbosityDebug,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, require the highest verbosity
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputResults:     "results",
	OutputErrors:      "errors",
	OutputUserStatus:  "status",
	OutputProgress:    "progress",
	OutputPoolSummary: "pool-summary",
	OutputTiming:      "timing",
	OutputConfig:      "config",
	OutputAtomTable:   "atom-table",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
