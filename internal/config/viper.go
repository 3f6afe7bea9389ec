package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ddbreport/internal/logging"
)

// EnvPrefix prefixes every environment variable read by the configuration
const EnvPrefix = "DDBREPORT"

// parameterSource tracks where each parameter value came from
type parameterSource struct {
	Key    string
	Value  interface{}
	Source string
}

// flagNames maps config keys to the flags bound to them
var flagNames = map[string]string{
	"aws.profile":             "profile",
	"aws.region":              "region",
	"aws.role":                "role",
	"app.max_workers":         "max-workers",
	"app.requests_per_second": "requests-per-second",
	"app.log_format":          "log-format",
	"app.log_level":           "log-level",
	"report.hours":            "hours",
	"report.environments":     "envs",
	"report.namespace":        "namespace",
	"report.min_name_width":   "min-name-width",
	"report.save":             "save",
	"report.output_dir":       "output-dir",
	"report.bucket":           "bucket",
	"report.bucket_region":    "bucket-region",
}

// Keys lists every configuration key in display order
var Keys = []string{
	"aws.profile",
	"aws.region",
	"aws.role",
	"app.max_workers",
	"app.requests_per_second",
	"app.log_format",
	"app.log_level",
	"report.hours",
	"report.environments",
	"report.namespace",
	"report.min_name_width",
	"report.save",
	"report.output_dir",
	"report.bucket",
	"report.bucket_region",
}

// FlagName returns the flag bound to key
func FlagName(key string) string {
	if name, ok := flagNames[key]; ok {
		return name
	}
	return strings.ReplaceAll(key, ".", "-")
}

// EnvKey returns the environment variable read for key
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// getParameterSource determines where a parameter value came from (config file, env var, flag, or default)
func getParameterSource(key string, cmd *cobra.Command) parameterSource {
	value := viper.Get(key)
	flagName := FlagName(key)

	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			return parameterSource{key, value, "command line flag"}
		}

		// Walk up the command chain checking persistent flags
		for current := cmd; current != nil; current = current.Parent() {
			if f := current.PersistentFlags().Lookup(flagName); f != nil && f.Changed {
				return parameterSource{key, value, "command line flag"}
			}
		}
	}

	if _, exists := os.LookupEnv(EnvKey(key)); exists {
		return parameterSource{key, value, "environment variable"}
	}

	if viper.GetViper().InConfig(key) {
		return parameterSource{key, value, "config file"}
	}

	return parameterSource{key, value, "default value"}
}

// LogConfigurationSources logs the source of each configuration parameter
func LogConfigurationSources(shouldLog bool, cmd *cobra.Command) {
	if !shouldLog {
		return
	}

	logging.Debug("Configuration parameter sources:")
	for _, key := range Keys {
		source := getParameterSource(key, cmd)
		logging.Debug(fmt.Sprintf("  %s = %v (from %s)", source.Key, source.Value, source.Source))
	}
}

// SetDefaults registers the default of every key
func SetDefaults() {
	viper.SetDefault("aws.profile", "default")
	viper.SetDefault("aws.region", DefaultRegion)
	viper.SetDefault("aws.role", "")
	viper.SetDefault("app.max_workers", 1)
	viper.SetDefault("app.requests_per_second", DefaultRateLimitConfig.RequestsPerSecond)
	viper.SetDefault("app.log_format", "text")
	viper.SetDefault("app.log_level", "INFO")
	viper.SetDefault("report.hours", DefaultHours)
	viper.SetDefault("report.environments", DefaultEnvironments)
	viper.SetDefault("report.namespace", "")
	viper.SetDefault("report.min_name_width", DefaultMinNameWidth)
	viper.SetDefault("report.save", "none")
	viper.SetDefault("report.output_dir", DefaultOutputDir)
	viper.SetDefault("report.bucket", "")
	viper.SetDefault("report.bucket_region", "")
}

// InitConfig initializes the Viper configuration
func InitConfig(shouldLog bool, cmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	// Try to read config file but don't error if not found
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if shouldLog {
			logging.Debug("No config file found, using defaults and environment variables")
		}
	} else if shouldLog {
		logging.Debug("Loaded config file", map[string]interface{}{
			"path": viper.ConfigFileUsed(),
		})
	}

	return nil
}

// SetConfigFile sets a custom config file path and reloads the configuration
func SetConfigFile(configFile string) error {
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// BindFlags binds every flag of cmd that backs a configuration key
func BindFlags(cmd *cobra.Command) error {
	for _, key := range Keys {
		f := cmd.Flags().Lookup(FlagName(key))
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("error binding flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// Load copies the resolved configuration into Config and Report
func Load() {
	Config = &GlobalConfig{
		Profile:           viper.GetString("aws.profile"),
		Region:            viper.GetString("aws.region"),
		Role:              viper.GetString("aws.role"),
		MaxWorkers:        viper.GetInt("app.max_workers"),
		RequestsPerSecond: viper.GetFloat64("app.requests_per_second"),
		LogFormat:         viper.GetString("app.log_format"),
		LogLevel:          viper.GetString("app.log_level"),
	}
	if Config.MaxWorkers < 1 {
		Config.MaxWorkers = 1
	}

	Report = &ReportConfig{
		Hours:        viper.GetInt("report.hours"),
		Environments: splitList(viper.GetStringSlice("report.environments")),
		Namespace:    viper.GetString("report.namespace"),
		MinNameWidth: viper.GetInt("report.min_name_width"),
		Save:         strings.ToLower(viper.GetString("report.save")),
		OutputDir:    viper.GetString("report.output_dir"),
		Bucket:       viper.GetString("report.bucket"),
		BucketRegion: viper.GetString("report.bucket_region"),
	}
}

// splitList flattens comma separated entries, as environment variables carry
// lists as a single string
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// WriteDefaultConfig writes DefaultConfigContent to path. An existing file is
// only replaced when force is set.
func WriteDefaultConfig(path string, force bool) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil && !force {
		return "", fmt.Errorf("file %s already exists. Use --force to overwrite", absPath)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(absPath, []byte(DefaultConfigContent), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return absPath, nil
}

// DefaultConfigContent is the config.yaml written by `init config`
const DefaultConfigContent = `# ddbreport Configuration File

# AWS Configuration
aws:
  profile: default  # AWS profile to use (supports SSO profiles)
  region: us-east-1  # Region the tables live in
  role: ""  # Optional role ARN to assume before querying

# Application Configuration
app:
  max_workers: 1  # Concurrent per-table fetches (1 = sequential)
  requests_per_second: 5  # Pacing per AWS API
  log_format: text  # Log output format (text or json)
  log_level: INFO  # Set logging level (DEBUG, INFO, WARN, ERROR)

# Report Configuration
report:
  hours: 720  # Lookback window in hours
  # Environment tags, in display order. Tables named <env>.<...> are grouped
  # under their tag, everything else lands in OTHER.
  environments:
    - prod
    - staging
    - dev
  namespace: ""  # Segment after the env tag, e.g. "features" for prod.features.<table>
  min_name_width: 30  # Minimum width of the table name column
  save: none  # Export the report as gzipped JSON (none, filesystem or s3)
  output_dir: output  # Base directory for filesystem exports
  bucket: ""  # S3 bucket name (required when save=s3)
  bucket_region: ""  # S3 bucket region (required when save=s3)
`
