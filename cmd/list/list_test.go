package list

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/undefinedlabs/go-mpatch"

	"ddbreport/cmd/commands"
	awspkg "ddbreport/internal/aws"
	"ddbreport/internal/config"
)

// captureOutput captures stdout and returns the captured output
func captureOutput(f func()) string {
	// Save original stdout
	oldStdout := os.Stdout

	// Create a pipe to capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Call the function that produces output
	f()

	// Close the writer and restore stdout
	w.Close()
	os.Stdout = oldStdout

	// Read the captured output
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error copying output: %v\n", err)
	}

	return buf.String()
}

// Helper function to safely unpatch
func safeUnpatch(patch *mpatch.Patch) {
	if err := patch.Unpatch(); err != nil {
		fmt.Fprintf(os.Stderr, "Error unpatching: %v\n", err)
	}
}

// tableLister is a Backend that only lists tables
type tableLister struct {
	commands.Backend
	names    []string
	err      error
	prefixes []string
}

func (l *tableLister) ListTables(ctx context.Context, prefixes []string) ([]string, error) {
	l.prefixes = prefixes
	return l.names, l.err
}

// TestNewListCmd tests the creation of the list command
func TestNewListCmd(t *testing.T) {
	cmd := NewListCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	// Verify subcommands
	subcommands := cmd.Commands()
	expectedSubcommands := []string{
		"tables",
		"profiles",
	}

	assert.Len(t, subcommands, len(expectedSubcommands))
	for _, subcmd := range subcommands {
		assert.Contains(t, expectedSubcommands, subcmd.Name())
	}
}

// TestNewTablesCmd tests the creation of the tables command
func TestNewTablesCmd(t *testing.T) {
	cmd := NewTablesCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "tables", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Example)

	allFlag := cmd.Flags().Lookup("all")
	require.NotNil(t, allFlag)
	assert.Equal(t, "bool", allFlag.Value.Type())
	assert.Equal(t, "false", allFlag.DefValue)

	envsFlag := cmd.Flags().Lookup("envs")
	require.NotNil(t, envsFlag)
	assert.Equal(t, "[prod,staging,dev]", envsFlag.DefValue)
}

// TestNewProfilesCmd tests the creation of the profiles command
func TestNewProfilesCmd(t *testing.T) {
	cmd := NewProfilesCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "profiles", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Example)
}

// TestRunTables tests the runTables function
func TestRunTables(t *testing.T) {
	tests := []struct {
		name             string
		all              bool
		listed           []string
		listErr          error
		expectedPrefixes []string
		expectedOutput   string
		expectError      bool
	}{
		{
			name:             "list tables of configured environments",
			listed:           []string{"prod.features.b", "dev.features.a", "prod.features.b"},
			expectedPrefixes: []string{"prod.features.", "dev.features."},
			expectedOutput:   "dev.features.a\nprod.features.b\n",
		},
		{
			name:           "list every table",
			all:            true,
			listed:         []string{"legacy", "prod.features.b"},
			expectedOutput: "legacy\nprod.features.b\n",
		},
		{
			name:             "no tables found",
			expectedPrefixes: []string{"prod.features.", "dev.features."},
			expectedOutput:   "",
		},
		{
			name:        "error listing tables",
			listErr:     fmt.Errorf("mock error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()

			origConnect, origReport := commands.Connect, config.Report
			defer func() { commands.Connect, config.Report = origConnect, origReport }()

			config.Report = &config.ReportConfig{
				Environments: []string{"prod", "dev"},
				Namespace:    "features",
			}

			lister := &tableLister{names: tt.listed, err: tt.listErr}
			commands.Connect = func(ctx context.Context, cfg *config.GlobalConfig) (commands.Backend, error) {
				return lister, nil
			}

			var out bytes.Buffer
			err := runTables(context.Background(), &out, tt.all)

			if tt.expectError {
				assert.ErrorContains(t, err, "failed to list tables")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedPrefixes, lister.prefixes)
			assert.Equal(t, tt.expectedOutput, out.String())
		})
	}
}

// TestRunProfiles tests the runProfiles function
func TestRunProfiles(t *testing.T) {
	tests := []struct {
		name           string
		mockProfiles   []string
		mockError      error
		expectedOutput string
		expectError    bool
	}{
		{
			name: "list available profiles",
			mockProfiles: []string{
				"default",
				"dev",
				"prod",
			},
			mockError:      nil,
			expectedOutput: "default\ndev\nprod\n",
			expectError:    false,
		},
		{
			name:           "no profiles found",
			mockProfiles:   []string{},
			mockError:      nil,
			expectedOutput: "",
			expectError:    false,
		},
		{
			name:           "error listing profiles",
			mockProfiles:   nil,
			mockError:      fmt.Errorf("mock error"),
			expectedOutput: "",
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper config before each test
			viper.Reset()

			// Patch the ListProfiles function
			patch, err := mpatch.PatchMethod(awspkg.ListProfiles, func() ([]string, error) {
				return tt.mockProfiles, tt.mockError
			})
			require.NoError(t, err)
			defer safeUnpatch(patch)

			// Capture output and execute function
			var output string
			var cmdErr error

			if tt.expectError {
				cmdErr = runProfiles()
				assert.Error(t, cmdErr)
				return
			}

			output = captureOutput(func() {
				cmdErr = runProfiles()
			})

			assert.NoError(t, cmdErr)
			output = strings.ReplaceAll(output, "\r\n", "\n")
			assert.Equal(t, tt.expectedOutput, output)
		})
	}
}
