// Package config loads the gopades application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors
var (
	ErrConfigurationError   = errors.New("configuration error")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnexpectedField      = errors.New("unexpected field in configuration")
	ErrInvalidOID           = errors.New("invalid OID")
	ErrInvalidValue         = errors.New("invalid value")
)

// OIDRegex matches OID strings like "1.2.3.4"
var OIDRegex = regexp.MustCompile(`^\d+(\.\d+)+$`)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfigurationError
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level,omitempty"`

	// Format is the log format (text, json).
	Format string `yaml:"format" json:"format,omitempty"`

	// Output is the log output (stdout, stderr, or file path).
	Output string `yaml:"output" json:"output,omitempty"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Level), Err: ErrInvalidValue}
	}
	switch c.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Format), Err: ErrInvalidValue}
	}
	return nil
}

// AlgorithmEntry names an algorithm in a policy override.
type AlgorithmEntry struct {
	// Name is informative and used in report messages.
	Name string `yaml:"name" json:"name,omitempty"`

	// OID is the dotted algorithm identifier.
	OID string `yaml:"oid" json:"oid"`
}

// PolicyConfig overrides the default algorithm policy. Entries are applied
// in the order forbidden, discouraged, accepted, so a later list wins.
type PolicyConfig struct {
	// IgnoreDefaults starts from an empty policy instead of the defaults.
	IgnoreDefaults bool `yaml:"ignore-defaults" json:"ignore_defaults"`

	Forbidden   []AlgorithmEntry `yaml:"forbidden" json:"forbidden,omitempty"`
	Discouraged []AlgorithmEntry `yaml:"discouraged" json:"discouraged,omitempty"`
	Accepted    []AlgorithmEntry `yaml:"accepted" json:"accepted,omitempty"`
}

// Validate checks that every entry carries a dotted OID.
func (c *PolicyConfig) Validate() error {
	lists := []struct {
		field   string
		entries []AlgorithmEntry
	}{
		{"policy.forbidden", c.Forbidden},
		{"policy.discouraged", c.Discouraged},
		{"policy.accepted", c.Accepted},
	}
	for _, list := range lists {
		for i, entry := range list.entries {
			if _, err := ProcessOID(entry.OID); err != nil {
				return &ConfigError{
					Field:   fmt.Sprintf("%s[%d]", list.field, i),
					Message: err.Error(),
					Err:     ErrInvalidOID,
				}
			}
		}
	}
	return nil
}

// OutputConfig contains report output configuration.
type OutputConfig struct {
	// Format is the report format (text, json).
	Format string `yaml:"format" json:"format,omitempty"`

	// Color controls styled text output: auto, always or never.
	Color string `yaml:"color" json:"color,omitempty"`

	// ShowWarnings includes warnings in text output.
	ShowWarnings *bool `yaml:"show-warnings" json:"show_warnings,omitempty"`
}

// SetDefaults sets default values for output configuration.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Color == "" {
		c.Color = "auto"
	}
	if c.ShowWarnings == nil {
		show := true
		c.ShowWarnings = &show
	}
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "output.format", Message: fmt.Sprintf("unknown format %q", c.Format), Err: ErrInvalidValue}
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return &ConfigError{Field: "output.color", Message: fmt.Sprintf("unknown color mode %q", c.Color), Err: ErrInvalidValue}
	}
	return nil
}

// AppConfig contains the complete application configuration.
type AppConfig struct {
	// Logging contains logging configuration.
	Logging *LoggingConfig `yaml:"logging" json:"logging,omitempty"`

	// Policy contains algorithm policy overrides.
	Policy *PolicyConfig `yaml:"policy" json:"policy,omitempty"`

	// Output contains report output configuration.
	Output *OutputConfig `yaml:"output" json:"output,omitempty"`
}

// DefaultAppConfig returns a configuration with every section defaulted.
func DefaultAppConfig() *AppConfig {
	config := &AppConfig{}
	config.SetDefaults()
	return config
}

// SetDefaults fills in missing sections and values.
func (c *AppConfig) SetDefaults() {
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.SetDefaults()
	if c.Policy == nil {
		c.Policy = &PolicyConfig{}
	}
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	c.Output.SetDefaults()
}

// Validate validates all sections.
func (c *AppConfig) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	return c.Output.Validate()
}

// LoadAppConfig loads the complete application configuration from a file.
func LoadAppConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseAppConfig(data)
}

// ParseAppConfig parses, defaults and validates configuration from YAML.
// Unknown keys are rejected.
func ParseAppConfig(data []byte) (*AppConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := CheckConfigKeys("gopades", []string{"logging", "policy", "output"}, keys); err != nil {
		return nil, err
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// CheckConfigKeys checks if all provided keys are valid for a given configuration type.
func CheckConfigKeys(configName string, expectedKeys, suppliedKeys []string) error {
	expectedSet := make(map[string]bool)
	for _, k := range expectedKeys {
		expectedSet[normalizeKey(k)] = true
	}

	var unexpected []string
	for _, k := range suppliedKeys {
		if !expectedSet[normalizeKey(k)] {
			unexpected = append(unexpected, k)
		}
	}

	if len(unexpected) > 0 {
		keyWord := "key"
		if len(unexpected) > 1 {
			keyWord = "keys"
		}
		return fmt.Errorf("%w: unexpected %s in configuration for %s: %s",
			ErrUnexpectedField, keyWord, configName, strings.Join(unexpected, ", "))
	}

	return nil
}

// normalizeKey normalizes a configuration key (underscores to dashes).
func normalizeKey(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// ProcessOID validates a dotted OID string.
func ProcessOID(oidString string) (string, error) {
	if oidString == "" {
		return "", NewConfigError("oid", "OID string is empty")
	}
	if !OIDRegex.MatchString(oidString) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOID, oidString)
	}
	return oidString, nil
}
