package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/selor/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete old backup %s", back3)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// ProjectConfigPath returns the selor.toml that Set writes to: the one found by
// upward search, else selor.toml in the working directory.
func ProjectConfigPath() (string, error) {
	if path := findProjectConfig(); path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine working directory")
	}
	return filepath.Join(wd, ConfigFileName), nil
}

// readTOML loads a config file as a generic map, or an empty map if it doesn't exist
func readTOML(path string) (map[string]interface{}, error) {
	config := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return config, nil
}

// writeTOML writes the config to path with backup
func writeTOML(path string, config map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// SetInFile sets a dotted key ("pool.num_atoms") in the TOML file at path.
// The raw value is parsed as int, bool or float before falling back to string.
func SetInFile(path, key, raw string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return errors.WithHint(errors.NewInvalidRequestError("config key %q", key),
			"keys take the form <section>.<name>, e.g. pool.num_atoms")
	}

	if !newIsolatedViper().IsSet(key) {
		return errors.WithHint(errors.NewInvalidRequestError("unknown config key %q", key),
			"run `selor am show` to list known keys")
	}

	config, err := readTOML(path)
	if err != nil {
		return err
	}

	section, ok := config[parts[0]].(map[string]interface{})
	if !ok {
		section = make(map[string]interface{})
	}
	section[parts[1]] = parseValue(raw)
	config[parts[0]] = section

	return writeTOML(path, config)
}

// Set writes key into the project config and drops cached configuration
func Set(key, raw string) (string, error) {
	path, err := ProjectConfigPath()
	if err != nil {
		return "", err
	}
	if err := SetInFile(path, key, raw); err != nil {
		return "", err
	}
	Reset()
	return path, nil
}

// WriteDefaults writes a selor.toml holding every default setting. Existing
// files are backed up first.
func WriteDefaults(path string) error {
	return writeTOML(path, defaultSettings())
}

func parseValue(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func defaultSettings() map[string]interface{} {
	v := newIsolatedViper()
	return v.AllSettings()
}
