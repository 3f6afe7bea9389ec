package config

// GlobalConfig holds the global configuration for the application
type GlobalConfig struct {
	// Profile is the AWS profile to use
	Profile string

	// Region is the AWS region the tables live in
	Region string

	// Role is an optional role ARN to assume before querying
	Role string

	// MaxWorkers bounds concurrent per-table fetches, 1 means sequential
	MaxWorkers int

	// RequestsPerSecond paces calls to each AWS API
	RequestsPerSecond float64

	// LogFormat is the format for logging
	LogFormat string

	// LogLevel is the minimum level logged
	LogLevel string
}

// ReportConfig holds the settings shared by the report commands
type ReportConfig struct {
	// Hours is the length of the lookback window
	Hours int

	// Environments are the ordered environment tags tables are grouped by
	Environments []string

	// Namespace is the name segment following the environment tag
	Namespace string

	// MinNameWidth is the minimum width of the rendered name column
	MinNameWidth int

	// Save selects the export target: none, filesystem or s3
	Save string

	// OutputDir is the base directory of filesystem exports
	OutputDir string

	// Bucket and BucketRegion locate s3 exports
	Bucket       string
	BucketRegion string
}

// RateLimit returns the request pacing of c
func (c *GlobalConfig) RateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: c.RequestsPerSecond}
}

// Config is the global configuration instance
var Config = &GlobalConfig{
	Profile:           "default",
	Region:            DefaultRegion,
	MaxWorkers:        1,
	RequestsPerSecond: DefaultRateLimitConfig.RequestsPerSecond,
}

// Report is the report configuration instance
var Report = &ReportConfig{
	Hours:        DefaultHours,
	Environments: append([]string(nil), DefaultEnvironments...),
	MinNameWidth: DefaultMinNameWidth,
	Save:         "none",
	OutputDir:    DefaultOutputDir,
}

const (
	DefaultRegion       = "us-east-1"
	DefaultHours        = 720
	DefaultMinNameWidth = 30
	DefaultOutputDir    = "output"
)

// DefaultEnvironments are the environment tags used when none are configured
var DefaultEnvironments = []string{"prod", "staging", "dev"}
