package am

// Config represents the selor configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Pool     PoolConfig     `mapstructure:"pool"`
	Explain  ExplainConfig  `mapstructure:"explain"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatasetConfig selects the dataset, the base model and the files backing them
type DatasetConfig struct {
	Name       string `mapstructure:"name"`        // Registered dataset (yelp, clickbait, adult)
	Base       string `mapstructure:"base"`        // Base model (bert, roberta, dnn); must share the dataset's modality
	TrainPath  string `mapstructure:"train_path"`  // Training CSV
	TestPath   string `mapstructure:"test_path"`   // Test CSV, used by explain
	SchemaPath string `mapstructure:"schema_path"` // Tabular schema TOML (tab datasets only)
	VocabPath  string `mapstructure:"vocab_path"`  // Vocabulary JSON (nlp datasets only; empty = <save_dir>/atom_tokenizer/...)
}

// PoolConfig configures atom pool construction
type PoolConfig struct {
	NumAtoms    int    `mapstructure:"num_atoms"`    // Text atom quota, excluding the dummy atom
	StrictQuota bool   `mapstructure:"strict_quota"` // Fail instead of warn when the quota cannot be filled
	Workers     int    `mapstructure:"workers"`      // Satisfaction matrix workers (0 = GOMAXPROCS)
	SaveDir     string `mapstructure:"save_dir"`     // Root directory for pool and vocabulary artifacts
}

// ExplainConfig configures explanation report generation
type ExplainConfig struct {
	Workers     int    `mapstructure:"workers"`      // Explanation workers (0 = GOMAXPROCS)
	OutputDir   string `mapstructure:"output_dir"`   // Directory for model_explanation.{json,txt}
	OutputsPath string `mapstructure:"outputs_path"` // JSON file with model-chosen antecedents and class probabilities
	StoreRuns   bool   `mapstructure:"store_runs"`   // Record explanation runs in the database
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Config file names
const (
	ConfigFileName = "selor.toml"
	configDirName  = ".selor"
	systemConfig   = "/etc/selor/selor.toml"
	envPrefix      = "SELOR"
)
