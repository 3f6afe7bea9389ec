package aws

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws/defaults"
	"gopkg.in/ini.v1"
)

// sharedFiles returns the credentials and config file paths, honouring the
// AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE overrides
func sharedFiles() (string, string) {
	credsPath := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credsPath == "" {
		credsPath = defaults.SharedCredentialsFilename()
	}
	configPath := os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = defaults.SharedConfigFilename()
	}
	return credsPath, configPath
}

// readProfiles adds the profile sections of an ini file to profiles. A
// missing file contributes nothing.
func readProfiles(path string, profiles map[string]struct{}) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		// config file sections are named "profile <name>"
		profiles[strings.TrimPrefix(name, "profile ")] = struct{}{}
	}
	return nil
}

// ListProfiles returns the sorted AWS profiles of the shared credentials and
// config files
func ListProfiles() ([]string, error) {
	credsPath, configPath := sharedFiles()

	profiles := make(map[string]struct{})
	for _, path := range []string{credsPath, configPath} {
		if err := readProfiles(path, profiles); err != nil {
			return nil, err
		}
	}

	result := make([]string, 0, len(profiles))
	for profile := range profiles {
		result = append(result, profile)
	}
	sort.Strings(result)

	return result, nil
}

// IsValidProfile checks if a profile exists
func IsValidProfile(profile string) bool {
	profiles, err := ListProfiles()
	if err != nil {
		return false
	}

	i := sort.SearchStrings(profiles, profile)
	return i < len(profiles) && profiles[i] == profile
}
