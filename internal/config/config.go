package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"arucolog/internal/aggregator"
	"arucolog/internal/anchor"
	"arucolog/internal/marker"
)

const (
	OutputPerInvocation = "invocation"
	OutputPerStream     = "stream"
)

const defaultMarkerNames = "0:dresser,2:reachy,3:table,4:shelf,7:monitor"

type Config struct {
	OutputDirectory  string
	OutputMode       string // invocation = one CSV per run, stream = one CSV per video
	Policy           string
	AnchorSource     string
	MarkerDictionary string
	MarkerNames      string
	UnknownLabel     string
	DatabasePath     string // empty disables persistence
	LiveAddress      string // empty disables the live feed while detecting
	ShowPreview      bool
	Port             int
	APIToken         string
	LogDirectory     string
	FFProbePath      string
}

// Load reads the configuration from the environment. Values from a .env file in
// the working directory are applied first; a missing file is fine.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		OutputDirectory:  getEnv("OUTPUT_DIR", filepath.Join(".", "arucoDetectCSV")),
		OutputMode:       getEnv("OUTPUT_MODE", OutputPerInvocation),
		Policy:           getEnv("POLICY", aggregator.PolicyUnion),
		AnchorSource:     getEnv("ANCHOR_SOURCE", string(anchor.SourceFilename)),
		MarkerDictionary: getEnv("MARKER_DICTIONARY", "5x5_100"),
		MarkerNames:      getEnv("MARKER_NAMES", defaultMarkerNames),
		UnknownLabel:     getEnv("UNKNOWN_LABEL", marker.DefaultPlaceholder),
		DatabasePath:     getEnv("DB_PATH", ""),
		LiveAddress:      getEnv("LIVE_ADDR", ""),
		ShowPreview:      getEnvAsBool("SHOW_PREVIEW", false),
		Port:             getEnvAsInt("PORT", 8080),
		APIToken:         getEnv("API_TOKEN", ""),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		FFProbePath:      getEnv("FFPROBE_PATH", "ffprobe"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := aggregator.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := anchor.ParseSource(c.AnchorSource); err != nil {
		errs = append(errs, err)
	}
	if c.OutputMode != OutputPerInvocation && c.OutputMode != OutputPerStream {
		errs = append(errs, fmt.Errorf("unknown output mode %q (expected %s or %s)", c.OutputMode, OutputPerInvocation, OutputPerStream))
	}
	if _, err := c.NameTable(); err != nil {
		errs = append(errs, err)
	}
	if !marker.ValidDictionary(c.MarkerDictionary) {
		errs = append(errs, fmt.Errorf("unknown marker dictionary %q (expected one of %s)", c.MarkerDictionary, strings.Join(marker.Dictionaries, ", ")))
	}
	if strings.TrimSpace(c.OutputDirectory) == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}

	return errors.Join(errs...)
}

// NameTable builds the marker name lookup from MarkerNames.
func (c *Config) NameTable() (marker.NameTable, error) {
	return marker.ParseNameTable(c.MarkerNames, c.UnknownLabel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
