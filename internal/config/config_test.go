package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	Load()

	assert.Equal(t, "default", Config.Profile)
	assert.Equal(t, DefaultRegion, Config.Region)
	assert.Equal(t, 1, Config.MaxWorkers)
	assert.Equal(t, 5.0, Config.RequestsPerSecond)
	assert.Equal(t, DefaultHours, Report.Hours)
	assert.Equal(t, []string{"prod", "staging", "dev"}, Report.Environments)
	assert.Equal(t, DefaultMinNameWidth, Report.MinNameWidth)
	assert.Equal(t, "none", Report.Save)
	assert.Equal(t, DefaultOutputDir, Report.OutputDir)
}

func TestSetConfigFile(t *testing.T) {
	resetViper(t)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aws:
  profile: analytics
  region: eu-west-1
app:
  max_workers: 4
report:
  hours: 24
  environments: [prod, qa]
  namespace: features
  save: FILESYSTEM
`), 0644))

	require.NoError(t, SetConfigFile(path))
	Load()

	assert.Equal(t, "analytics", Config.Profile)
	assert.Equal(t, "eu-west-1", Config.Region)
	assert.Equal(t, 4, Config.MaxWorkers)
	assert.Equal(t, 24, Report.Hours)
	assert.Equal(t, []string{"prod", "qa"}, Report.Environments)
	assert.Equal(t, "features", Report.Namespace)
	assert.Equal(t, "filesystem", Report.Save)
}

func TestSetConfigFileMissing(t *testing.T) {
	resetViper(t)
	assert.Error(t, SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestEnvironmentOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("DDBREPORT_REPORT_ENVIRONMENTS", "prod,dev")
	t.Setenv("DDBREPORT_APP_MAX_WORKERS", "0")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	require.NoError(t, InitConfig(false, nil))
	Load()

	assert.Equal(t, []string{"prod", "dev"}, Report.Environments)
	assert.Equal(t, 1, Config.MaxWorkers, "worker count is clamped to 1")
}

func TestBindFlagsPrecedence(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cmd := &cobra.Command{Use: "rw", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Int("hours", DefaultHours, "")
	cmd.Flags().StringSlice("envs", DefaultEnvironments, "")
	require.NoError(t, BindFlags(cmd))
	require.NoError(t, cmd.ParseFlags([]string{"--hours", "48", "--envs", "prod,staging"}))

	Load()

	assert.Equal(t, 48, Report.Hours)
	assert.Equal(t, []string{"prod", "staging"}, Report.Environments)

	source := getParameterSource("report.hours", cmd)
	assert.Equal(t, "command line flag", source.Source)
	assert.Equal(t, "default value", getParameterSource("report.namespace", cmd).Source)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "DDBREPORT_AWS_PROFILE", EnvKey("aws.profile"))
	assert.Equal(t, "DDBREPORT_REPORT_MIN_NAME_WIDTH", EnvKey("report.min_name_width"))
	assert.Equal(t, "min-name-width", FlagName("report.min_name_width"))
	assert.Equal(t, "output-dir", FlagName("report.output_dir"))
}

func TestRateLimitInterval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, RateLimitConfig{RequestsPerSecond: 5}.Interval())
	assert.Equal(t, time.Duration(0), RateLimitConfig{}.Interval())
	assert.Equal(t, 500*time.Millisecond, (&GlobalConfig{RequestsPerSecond: 2}).RateLimit().Interval())
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	abs, err := WriteDefaultConfig(path, false)
	require.NoError(t, err)

	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigContent, string(data))

	_, err = WriteDefaultConfig(path, false)
	assert.ErrorContains(t, err, "already exists")

	_, err = WriteDefaultConfig(path, true)
	assert.NoError(t, err)
}

func TestDefaultConfigParses(t *testing.T) {
	resetViper(t)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := WriteDefaultConfig(path, false)
	require.NoError(t, err)
	require.NoError(t, SetConfigFile(path))
	Load()

	assert.Equal(t, []string{"prod", "staging", "dev"}, Report.Environments)
	assert.Equal(t, 720, Report.Hours)
	assert.Equal(t, "none", Report.Save)
}
