// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigScope selects which config file a write goes to
type ConfigScope int

const (
	ScopeLocal ConfigScope = iota // ./onboard.yaml, per project directory
	ScopeUser                     // ~/.config/onboard/config.yaml
)

func (s ConfigScope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "local"
}

// Path is the file backing the scope
func (s ConfigScope) Path() string {
	if s == ScopeUser {
		return filepath.Join(GlobalPaths.ConfigDir, ConfigFileName+DefaultConfigExt)
	}
	return filepath.Join(".", LocalConfigFile+DefaultConfigExt)
}

// Display is the path as shown to users
func (s ConfigScope) Display() string {
	if s == ScopeUser {
		return "~/.config/onboard/" + ConfigFileName + DefaultConfigExt
	}
	return "./" + LocalConfigFile + DefaultConfigExt
}

// scopesByPrecedence lists the files in the order they override each other
var scopesByPrecedence = []ConfigScope{ScopeLocal, ScopeUser}

var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

// ConfigValue is an effective setting and where it came from
type ConfigValue struct {
	Key    string
	Value  interface{}
	Source string
}

// readScope loads one scope's file into its own viper instance. exists is
// false when the file is missing, in which case v is empty but usable.
func readScope(scope ConfigScope) (v *viper.Viper, exists bool, err error) {
	v = viper.New()
	v.SetConfigType(ConfigType)
	v.SetConfigFile(scope.Path())

	if _, err := os.Stat(scope.Path()); os.IsNotExist(err) {
		return v, false, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, true, fmt.Errorf("failed to read %s config: %w", scope, err)
	}
	return v, true, nil
}

func writeScope(v *viper.Viper, scope ConfigScope) error {
	path := scope.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s config: %w", scope, err)
	}
	return nil
}

// SetConfigValue stores key in the scope's file. raw is converted to the
// key's registered type before validation.
func SetConfigValue(key, raw string, scope ConfigScope) error {
	if err := ValidateKeyScope(key, scope); err != nil {
		return err
	}

	value := coerceValue(GetKeyDefinition(key), raw)
	if err := ValidateValue(key, value, scope); err != nil {
		return err
	}

	v, _, err := readScope(scope)
	if err != nil {
		return err
	}
	v.Set(key, value)
	return writeScope(v, scope)
}

// UnsetConfigValue removes key from the scope's file. Sections left empty
// are removed too.
func UnsetConfigValue(key string, scope ConfigScope) error {
	v, exists, err := readScope(scope)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s config file does not exist: %s", scope, scope.Path())
	}
	if !v.IsSet(key) {
		return fmt.Errorf("key '%s' not found in %s config", key, scope)
	}

	settings := v.AllSettings()
	if !deleteNestedKey(settings, strings.Split(key, ".")) {
		return fmt.Errorf("key '%s' not found in %s config", key, scope)
	}

	// viper cannot unset, so rebuild from what is left
	rebuilt := viper.New()
	rebuilt.SetConfigType(ConfigType)
	for k, val := range settings {
		rebuilt.Set(k, val)
	}
	return writeScope(rebuilt, scope)
}

// GetConfigValue returns the effective value of key
func GetConfigValue(key string) (*ConfigValue, error) {
	if GetKeyDefinition(key) == nil && !viper.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	src, err := loadSources()
	if err != nil {
		return nil, err
	}
	return &ConfigValue{Key: key, Value: viper.Get(key), Source: src.of(key)}, nil
}

// ListConfigValues returns every registered key, sorted, with its
// effective value. Secrets are masked.
func ListConfigValues() ([]ConfigValue, error) {
	src, err := loadSources()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ConfigRegistry))
	for key := range ConfigRegistry {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([]ConfigValue, 0, len(keys))
	for _, key := range keys {
		value := viper.Get(key)
		if ConfigRegistry[key].Secret {
			value = maskSecret(viper.GetString(key))
		}
		values = append(values, ConfigValue{Key: key, Value: value, Source: src.of(key)})
	}
	return values, nil
}

// coerceValue converts raw to the type registered for the key. Input that
// does not convert is returned as is for ValidateValue to reject.
func coerceValue(def *ConfigKeyDefinition, raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if def == nil {
		return raw
	}

	switch def.Type {
	case "bool":
		switch strings.ToLower(raw) {
		case "true", "yes", "on", "enable", "enabled":
			return true
		case "false", "no", "off", "disable", "disabled":
			return false
		}
	case "int":
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case "duration":
		// A bare number is taken as seconds
		if n, err := strconv.Atoi(raw); err == nil {
			return (time.Duration(n) * time.Second).String()
		}
	case "enum":
		return strings.ToLower(raw)
	}
	return raw
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

func keyToEnvVar(key string) string {
	return strings.ToUpper(EnvPrefix + "_" + envKeyReplacer.Replace(key))
}

// sources holds each scope's file so a value can be traced to the layer
// that set it
type sources map[ConfigScope]*viper.Viper

func loadSources() (sources, error) {
	src := sources{}
	for _, scope := range scopesByPrecedence {
		v, exists, err := readScope(scope)
		if err != nil {
			return nil, err
		}
		if exists {
			src[scope] = v
		}
	}
	return src, nil
}

// of names the highest precedence layer setting key
func (src sources) of(key string) string {
	if env := keyToEnvVar(key); os.Getenv(env) != "" {
		return "from ENV: " + env
	}
	for _, scope := range scopesByPrecedence {
		if v, ok := src[scope]; ok && v.IsSet(key) {
			return "from " + scope.Display()
		}
	}
	return "default"
}

// deleteNestedKey removes the key at path from m, dropping any map left
// empty on the way. It reports whether the key was present.
func deleteNestedKey(m map[string]interface{}, path []string) bool {
	if len(path) == 1 {
		_, ok := m[path[0]]
		delete(m, path[0])
		return ok
	}
	child, ok := m[path[0]].(map[string]interface{})
	if !ok {
		return false
	}
	found := deleteNestedKey(child, path[1:])
	if len(child) == 0 {
		delete(m, path[0])
	}
	return found
}

// flattenKeys lists the dotted keys of the leaves of m, sorted
func flattenKeys(m map[string]interface{}, prefix string) []string {
	var keys []string
	for k, v := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			keys = append(keys, flattenKeys(nested, k)...)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
