// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ScopeConstraints defines per-scope validation rules for a configuration key
type ScopeConstraints struct {
	Forbidden  bool     // If true, this key cannot be set in this scope
	EnumValues []string // Valid enum values for this scope (overrides global EnumValues if set)
	Pattern    string   // Regex pattern for this scope (overrides global Pattern if set)
}

// ConfigKeyDefinition defines metadata for a configuration key
type ConfigKeyDefinition struct {
	Key         string      // Configuration key (dot notation)
	Type        string      // "string", "bool", "enum", "int", "duration"
	Default     interface{} // Default value
	Description string      // Help text
	Secret      bool        // Masked in listings and marked writeOnly in the schema

	// Global constraints (apply unless overridden by scope-specific constraints)
	EnumValues []string // Valid values for enum type (if Type="enum")
	Pattern    string   // Regex pattern for validation (if Type="string")

	// Per-scope constraints (optional - if nil, key is allowed in scope with global constraints)
	UserConstraints  *ScopeConstraints // Constraints when setting in user config
	LocalConstraints *ScopeConstraints // Constraints when setting in ./onboard.yaml
}

const hostPortPattern = `^[A-Za-z0-9.\-\[\]:]*:[0-9]{1,5}$`

// ConfigRegistry holds all known configuration keys with per-scope constraints.
//
// Constraint System:
//   - No constraints: Key can be set in any scope with same validation rules
//   - Forbidden constraint: Key cannot be set in the specified scope
//   - Scope-specific EnumValues: Different allowed values per scope
//   - Scope-specific Pattern: Different regex validation per scope
var ConfigRegistry = map[string]ConfigKeyDefinition{
	"use-tui": {
		Key:         "use-tui",
		Type:        "bool",
		Default:     true,
		Description: "Run the interactive wizard when attached to a terminal",
	},

	"log-level": {
		Key:         "log-level",
		Type:        "enum",
		Default:     "debug",
		Description: "Log verbosity level",
		EnumValues:  []string{"disabled", "debug", "info", "warn", "error"},
	},

	"github-token": {
		Key:         "github-token",
		Type:        "string",
		Default:     "",
		Description: "GitHub personal access token for release downloads",
		Secret:      true,
		LocalConstraints: &ScopeConstraints{
			Forbidden: true,
		},
	},

	"api.base-url": {
		Key:         "api.base-url",
		Type:        "string",
		Default:     "http://127.0.0.1:5002",
		Description: "Base URL of the local backend",
		Pattern:     `^https?://[^\s/]+(/.*)?$`,
	},

	"api.timeout": {
		Key:         "api.timeout",
		Type:        "duration",
		Default:     "5s",
		Description: "Timeout for each request to the local backend",
	},

	"network.check-host": {
		Key:         "network.check-host",
		Type:        "string",
		Default:     "google.com:80",
		Description: "host:port resolved to decide whether the network is reachable",
		Pattern:     hostPortPattern,
	},

	"network.timeout": {
		Key:         "network.timeout",
		Type:        "duration",
		Default:     "5s",
		Description: "Timeout for the network reachability check",
	},

	"preferences.debounce": {
		Key:         "preferences.debounce",
		Type:        "duration",
		Default:     "500ms",
		Description: "Quiet period after the last preference change before it is saved",
	},

	"backend.poll-interval": {
		Key:         "backend.poll-interval",
		Type:        "duration",
		Default:     "1s",
		Description: "Delay between backend download progress checks",
	},

	"backend.repo": {
		Key:         "backend.repo",
		Type:        "string",
		Default:     "",
		Description: "GitHub owner/repo publishing the backend (empty simulates the download)",
		Pattern:     `^$|^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`,
	},

	"backend.asset": {
		Key:         "backend.asset",
		Type:        "string",
		Default:     "onboard-backend",
		Description: "Release asset base name (downloaded as <asset>-<arch>.xz)",
		Pattern:     `^[A-Za-z0-9_.-]+$`,
	},

	"backend.install-dir": {
		Key:         "backend.install-dir",
		Type:        "string",
		Default:     "", // Set in InitViper() using GlobalPaths.BackendDir
		Description: "Directory the backend is installed into",
	},

	"backend.signing-key": {
		Key:         "backend.signing-key",
		Type:        "string",
		Default:     "",
		Description: "OpenPGP public key used to verify the release SHA256SUMS signature",
	},

	"backend.simulate-duration": {
		Key:         "backend.simulate-duration",
		Type:        "duration",
		Default:     "10s",
		Description: "Length of a simulated backend download",
	},

	"telemetry.breaker.failures": {
		Key:         "telemetry.breaker.failures",
		Type:        "int",
		Default:     3,
		Description: "Consecutive delivery failures before telemetry goes straight to the local queue",
	},

	"telemetry.breaker.cooldown": {
		Key:         "telemetry.breaker.cooldown",
		Type:        "duration",
		Default:     "30s",
		Description: "How long telemetry delivery stays suspended after the breaker opens",
	},

	"serve.addr": {
		Key:         "serve.addr",
		Type:        "string",
		Default:     "127.0.0.1:5002",
		Description: "Listen address of the development backend",
		Pattern:     hostPortPattern,
	},
}

// GetKeyDefinition returns the definition for a key, or nil if not found
func GetKeyDefinition(key string) *ConfigKeyDefinition {
	if def, ok := ConfigRegistry[key]; ok {
		return &def
	}
	return nil
}

func scopeConstraints(def *ConfigKeyDefinition, scope ConfigScope) *ScopeConstraints {
	switch scope {
	case ScopeUser:
		return def.UserConstraints
	case ScopeLocal:
		return def.LocalConstraints
	}
	return nil
}

// ValidateKeyScope checks if a key can be set in the given scope
// Returns an error if the key is forbidden in the specified scope
func ValidateKeyScope(key string, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	constraints := scopeConstraints(def, scope)
	if constraints == nil || !constraints.Forbidden {
		return nil
	}

	switch scope {
	case ScopeUser:
		return fmt.Errorf(
			"key '%s' cannot be set in user config\n\n"+
				"Hint: Remove --global flag:\n"+
				"  onboard config set %s <value>\n\n"+
				"This key must be set in local config: ./onboard.yaml",
			key,
			key,
		)
	default:
		return fmt.Errorf(
			"key '%s' cannot be set in local config (sensitive setting)\n\n"+
				"Hint: Use --global flag:\n"+
				"  onboard config set --global %s <value>\n\n"+
				"User config: ~/.config/onboard/config.yaml\n"+
				"This setting must NOT be committed to version control.",
			key,
			key,
		)
	}
}

// ValidateValue checks if a value is valid for the given key in the specified scope
// Applies per-scope constraints if defined, otherwise uses global constraints
func ValidateValue(key string, value interface{}, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	constraints := scopeConstraints(def, scope)

	// Type validation
	switch def.Type {
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("key '%s' must be a boolean", key)
		}

	case "int":
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("key '%s' must be an integer", key)
		}
		if n < 1 {
			return fmt.Errorf("key '%s' must be at least 1", key)
		}

	case "duration":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a duration such as 500ms or 5s", key)
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("key '%s' must be a duration such as 500ms or 5s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("key '%s' must be a positive duration", key)
		}

	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}

		// Pattern validation - use scope-specific pattern if available
		pattern := def.Pattern
		if constraints != nil && constraints.Pattern != "" {
			pattern = constraints.Pattern
		}

		if pattern != "" {
			matched, err := regexp.MatchString(pattern, str)
			if err != nil {
				return fmt.Errorf("pattern validation error: %w", err)
			}
			if !matched {
				return fmt.Errorf(
					"key '%s' value '%s' does not match required format for %s scope",
					key,
					str,
					scope,
				)
			}
		}

	case "enum":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}

		// Enum validation - use scope-specific enum if available
		enumValues := def.EnumValues
		if constraints != nil && constraints.EnumValues != nil {
			enumValues = constraints.EnumValues
		}

		valid := false
		for _, enumVal := range enumValues {
			if str == enumVal {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf(
				"key '%s' must be one of %v in %s scope (got '%s')",
				key,
				enumValues,
				scope,
				str,
			)
		}
	}

	// Path keys
	switch key {
	case "backend.install-dir":
		str := value.(string)
		if str == "" {
			return nil
		}
		if scope == ScopeLocal {
			if err := validateLocalPath(str); err != nil {
				return fmt.Errorf("key '%s': %w", key, err)
			}
		}
		if err := validateDirPath(str); err != nil {
			return fmt.Errorf("key '%s': %w", key, err)
		}

	case "backend.signing-key":
		str := value.(string)
		if str == "" {
			return nil
		}
		if scope == ScopeLocal {
			if err := validateLocalPath(str); err != nil {
				return fmt.Errorf("key '%s': %w", key, err)
			}
		}
		if err := validateFilePath(str); err != nil {
			return fmt.Errorf("key '%s': %w", key, err)
		}
	}

	return nil
}

// validateDirPath validates a directory setting
// - Must be existing directory OR non-existent (will be created)
// - Must NOT point to an existing file
func validateDirPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Path doesn't exist - this is OK, it will be created
			return nil
		}
		// Some other error (permission denied, etc.)
		return fmt.Errorf("cannot access path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path points to an existing file; must be a directory or non-existent path")
	}

	return nil
}

// validateFilePath validates that a path points to an existing file
func validateFilePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist")
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path points to a directory; must be a file")
	}

	return nil
}

// validateLocalPath validates that a path is safe for use in local config
// - Must be relative to the directory holding onboard.yaml
// - Must not traverse outside it (no ../)
func validateLocalPath(path string) error {
	// Clean the path (resolves . and .. components)
	cleaned := filepath.Clean(path)

	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		return fmt.Errorf("path must not traverse outside the project directory (no '../' allowed)")
	}

	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("path must be relative to the project directory")
	}

	return nil
}
