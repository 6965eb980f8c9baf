package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/selor/errors"
)

// ConfigSource names the layer a setting was read from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/selor/selor.toml
	SourceUser        ConfigSource = "user"        // ~/.selor/selor.toml
	SourceProject     ConfigSource = "project"     // selor.toml found by upward search
	SourceEnvironment ConfigSource = "environment" // SELOR_* env vars
)

const builtinDefault = "built-in default"

// SourceInfo is the layer and file (or env var) a key was last set by
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// SettingInfo is one effective setting and where it came from
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// CheckedFile is one candidate config file of the cascade
type CheckedFile struct {
	Path   string       `json:"path"`
	Source ConfigSource `json:"source"`
	Exists bool         `json:"exists"`
}

// ConfigIntrospection describes the effective configuration: the files that
// were checked, the project file in use and every setting with its source.
type ConfigIntrospection struct {
	ConfigFile string               `json:"config_file"`
	Files      []CheckedFile        `json:"files"`
	Settings   []SettingInfo        `json:"settings"`
	BySource   map[ConfigSource]int `json:"by_source"`
}

// GetConfigIntrospection loads the configuration if needed and reports the
// source of every effective setting.
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if len(ConfigSources) == 0 {
		if _, err := Load(); err != nil {
			return nil, errors.Wrap(err, "failed to load config for introspection")
		}
	}
	v := GetViper()

	intro := &ConfigIntrospection{
		ConfigFile: v.ConfigFileUsed(),
		Files:      checkedFiles(),
		BySource:   map[ConfigSource]int{},
	}
	flattenSettingsWithSources(v.AllSettings(), "", intro, ConfigSources)
	for _, s := range intro.Settings {
		intro.BySource[s.Source]++
	}
	return intro, nil
}

// checkedFiles lists the cascade, lowest precedence first. A missing project
// file is reported at the working directory, where `am set` would create it.
func checkedFiles() []CheckedFile {
	var files []CheckedFile
	project := false
	for _, f := range configFiles() {
		_, err := os.Stat(f.path)
		files = append(files, CheckedFile{Path: f.path, Source: f.source, Exists: err == nil})
		project = project || f.source == SourceProject
	}
	if !project {
		if path, err := ProjectConfigPath(); err == nil {
			files = append(files, CheckedFile{Path: path, Source: SourceProject})
		}
	}
	return files
}

// flattenSettingsWithSources appends settings as dotted keys in sorted order.
// An environment variable set for a key outranks any tracked file source.
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, intro *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := settings[key].(map[string]interface{}); ok {
			flattenSettingsWithSources(nested, fullKey, intro, sourceMap)
			continue
		}

		info, ok := sourceMap[fullKey]
		if !ok {
			info = SourceInfo{Source: SourceDefault, Path: builtinDefault}
		}
		if env := envKey(fullKey); os.Getenv(env) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: env}
		}

		intro.Settings = append(intro.Settings, SettingInfo{
			Key:        fullKey,
			Value:      settings[key],
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}

// envKey maps pool.num_atoms to SELOR_POOL_NUM_ATOMS
func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
