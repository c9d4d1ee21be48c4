// Package conf handles loading and validating GeoPin-Go settings from
// configuration files, environment variables, and command-line flags.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   `yaml:"enabled"` // true to enable this log
	Path    string `yaml:"path"`    // path to log file
}

// MainSettings contains top-level application settings
type MainSettings struct {
	Name string    `yaml:"name"` // name of this node, can be used to identify source of exported data
	Log  LogConfig `yaml:"log"`  // main log settings
}

// IdentitySettings controls how two point records are decided to be the
// same real-world feature across independent dataset copies.
type IdentitySettings struct {
	// Epsilon is the coordinate-distance tolerance in degrees. It exists to
	// tolerate floating-point re-serialization of the same source data, not
	// to merge genuinely distinct nearby points. Sensible values are in the
	// 1e-4 to 1e-3 range.
	Epsilon float64 `yaml:"epsilon"`
	// SurrogatePrecision is the number of decimals used for the
	// fixed-precision surrogate key that survives snapshot swaps.
	SurrogatePrecision int `yaml:"surrogateprecision"`
}

// LegendSettings controls the on-map flagged legend element. Display-only,
// never gates annotation correctness.
type LegendSettings struct {
	Title    string `yaml:"title"`    // legend caption
	Position string `yaml:"position"` // screen corner, follows the sidebar position
}

// StyleSettings defines how flagged markers are painted. Flagged style
// dominates category color.
type StyleSettings struct {
	FlaggedRadius int    `yaml:"flaggedradius"` // marker radius for flagged records
	DefaultRadius int    `yaml:"defaultradius"` // marker radius for unflagged records
	FlaggedColor  string `yaml:"flaggedcolor"`  // fill accent for flagged records
	FlaggedStroke string `yaml:"flaggedstroke"` // stroke accent for flagged records
	DefaultColor  string `yaml:"defaultcolor"`  // fallback fill for uncategorized records
}

// DatasetSettings configures the dataset loader.
type DatasetSettings struct {
	Source       string        `yaml:"source"`       // file path or http(s) URL of the point collection
	Format       string        `yaml:"format"`       // geojson or yaml, empty means detect from extension
	FetchTimeout time.Duration `yaml:"fetchtimeout"` // per-request timeout for remote sources
	MaxRetries   int           `yaml:"maxretries"`   // remote fetch retry attempts
	RetryDelay   time.Duration `yaml:"retrydelay"`   // delay between fetch retries
	CacheTTL     time.Duration `yaml:"cachettl"`     // how long fetched remote documents are cached
}

// APISettings configures the HTTP surface.
type APISettings struct {
	Enabled bool   `yaml:"enabled"` // true to start the HTTP server
	Host    string `yaml:"host"`    // listen address
	Port    string `yaml:"port"`    // listen port
	Metrics bool   `yaml:"metrics"` // true to expose Prometheus metrics endpoint
}

// Settings contains all GeoPin-Go application settings
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Main     MainSettings     `yaml:"main"`
	Identity IdentitySettings `yaml:"identity"`
	Legend   LegendSettings   `yaml:"legend"`
	Style    StyleSettings    `yaml:"style"`
	Dataset  DatasetSettings  `yaml:"dataset"`
	API      APISettings      `yaml:"api"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and installs it as the current one.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("GEOPIN")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, proceed with defaults
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the search paths for the configuration file.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fall back to the working directory only
		return []string{"."}, nil //nolint:nilerr // missing user config dir is not fatal
	}

	return []string{
		".",
		filepath.Join(configDir, "geopin"),
	}, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetTestSettings installs a settings instance directly. Intended for tests
// that need deterministic configuration without touching the filesystem.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	once.Do(func() {})
	settingsInstance = settings
}

// SaveSettings saves the current settings to the given configuration file path.
// The write is atomic: a temporary file is written first and then renamed.
func SaveSettings(configPath string) error {
	settingsMutex.RLock()
	settingsCopy := *settingsInstance
	settingsMutex.RUnlock()

	yamlData, err := yaml.Marshal(&settingsCopy)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
