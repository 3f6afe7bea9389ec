package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddbreport/cmd/commands"
	"ddbreport/internal/config"
	"ddbreport/internal/logging"
	"ddbreport/internal/version"
)

var errOffline = errors.New("offline")

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// execute runs the root command with args. The AWS connection is replaced by
// one that records the configuration it was opened with and fails.
func execute(t *testing.T, args ...string) (string, *config.GlobalConfig, error) {
	t.Helper()

	viper.Reset()
	config.Config = &config.GlobalConfig{}
	config.Report = &config.ReportConfig{}

	var connected *config.GlobalConfig
	orig := commands.Connect
	commands.Connect = func(ctx context.Context, cfg *config.GlobalConfig) (commands.Backend, error) {
		connected = cfg
		return nil, errOffline
	}
	defer func() { commands.Connect = orig }()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), connected, err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aws:
  profile: test-profile
  region: eu-west-1
  role: ReportReader
app:
  max_workers: 16
report:
  hours: 168
  environments:
    - live
    - qa
  namespace: features
`), 0644))
	return path
}

func TestVersionSkipsConfig(t *testing.T) {
	out, connected, err := execute(t, "version")
	require.NoError(t, err)

	assert.Equal(t, "ddbreport "+version.String()+"\n", out)
	assert.Nil(t, connected)
	assert.Empty(t, config.Config.Profile, "version command should not load config")

	out, _, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)
}

func TestInvalidCommand(t *testing.T) {
	_, _, err := execute(t, "invalid")
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	configFile := writeConfig(t)

	tests := []struct {
		name     string
		args     []string
		env      map[string]string
		validate func(t *testing.T, cfg *config.GlobalConfig)
	}{
		{
			name: "default values should be set when not specified",
			args: []string{"rw"},
			validate: func(t *testing.T, cfg *config.GlobalConfig) {
				assert.Equal(t, "default", cfg.Profile)
				assert.Equal(t, config.DefaultRegion, cfg.Region)
				assert.Empty(t, cfg.Role)
				assert.Equal(t, 1, cfg.MaxWorkers)
				assert.Equal(t, config.DefaultHours, config.Report.Hours)
				assert.Equal(t, config.DefaultEnvironments, config.Report.Environments)
				assert.Equal(t, "none", config.Report.Save)
			},
		},
		{
			name: "valid config file should be loaded",
			args: []string{"rw", "--config", configFile},
			validate: func(t *testing.T, cfg *config.GlobalConfig) {
				assert.Equal(t, "test-profile", cfg.Profile)
				assert.Equal(t, "eu-west-1", cfg.Region)
				assert.Equal(t, "ReportReader", cfg.Role)
				assert.Equal(t, 16, cfg.MaxWorkers)
				assert.Equal(t, 168, config.Report.Hours)
				assert.Equal(t, []string{"live", "qa"}, config.Report.Environments)
				assert.Equal(t, "features", config.Report.Namespace)
			},
		},
		{
			name: "command line flags should override config",
			args: []string{
				"throughput",
				"--config", configFile,
				"--profile", "override-profile",
				"--region", "us-west-2",
				"--max-workers", "4",
				"--hours", "24",
				"--envs", "prod,dev",
			},
			validate: func(t *testing.T, cfg *config.GlobalConfig) {
				assert.Equal(t, "override-profile", cfg.Profile)
				assert.Equal(t, "us-west-2", cfg.Region)
				assert.Equal(t, "ReportReader", cfg.Role)
				assert.Equal(t, 4, cfg.MaxWorkers)
				assert.Equal(t, 24, config.Report.Hours)
				assert.Equal(t, []string{"prod", "dev"}, config.Report.Environments)
			},
		},
		{
			name: "environment variables should override config",
			args: []string{"rw", "--config", configFile},
			env: map[string]string{
				"DDBREPORT_AWS_PROFILE":         "env-profile",
				"DDBREPORT_REPORT_ENVIRONMENTS": "prod,staging",
			},
			validate: func(t *testing.T, cfg *config.GlobalConfig) {
				assert.Equal(t, "env-profile", cfg.Profile)
				assert.Equal(t, []string{"prod", "staging"}, config.Report.Environments)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, connected, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, errOffline)
			require.NotNil(t, connected, "the run should reach the AWS connection")
			tt.validate(t, connected)
		})
	}
}

func TestFlagValidationRunsBeforeAWS(t *testing.T) {
	_, connected, err := execute(t, "rw", "--hours", "0")
	assert.ErrorContains(t, err, "--hours must be positive")
	assert.Nil(t, connected)

	_, connected, err = execute(t, "throughput", "--period", "90")
	assert.ErrorContains(t, err, "--period must be a positive multiple of 60 seconds")
	assert.Nil(t, connected)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, connected, err := execute(t, "init", "config", "--output", path)
	require.NoError(t, err)
	assert.Nil(t, connected)
	assert.Contains(t, out, "Created config file: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigContent, string(data))

	_, _, err = execute(t, "init", "config", "--output", path)
	assert.ErrorContains(t, err, "already exists")
}
