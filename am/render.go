package am

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/selor/errors"
)

// Output formats accepted by Render
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// newIsolatedViper returns a viper holding only defaults: no files, no environment
func newIsolatedViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// Render encodes nested settings (as returned by viper's AllSettings) in format
func Render(settings map[string]interface{}, format string) ([]byte, error) {
	switch format {
	case FormatTOML, "":
		return toml.Marshal(settings)
	case FormatJSON:
		return json.MarshalIndent(settings, "", "  ")
	case FormatYAML:
		return yaml.Marshal(settings)
	default:
		return nil, errors.WithHintf(errors.NewNotSupportedError("config format %q", format),
			"use one of %s, %s, %s", FormatTOML, FormatJSON, FormatYAML)
	}
}

// RenderEffective renders the merged configuration
func RenderEffective(format string) ([]byte, error) {
	return Render(GetViper().AllSettings(), format)
}

// Describe returns a single setting as text, or ErrNotFound for unknown keys
func Describe(key string) (string, error) {
	v := GetViper()
	if !v.IsSet(key) {
		return "", errors.Wrapf(errors.ErrNotFound, "config key %q", key)
	}
	value := v.Get(key)
	if value == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", value), nil
}

// Keys lists every known dotted key, sorted
func Keys() []string {
	keys := newIsolatedViper().AllKeys()
	sort.Strings(keys)
	return keys
}
