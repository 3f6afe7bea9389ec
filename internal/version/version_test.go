package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(c, b, g string) { GitCommit, BuildTime, GoVersion = c, b, g }(GitCommit, BuildTime, GoVersion)

	GitCommit, BuildTime = "", ""
	assert.Equal(t, Version, String())

	GitCommit, BuildTime, GoVersion = "0123456789abcdef", "2024-03-31T00:00:00Z", "go1.24.0"
	assert.Equal(t, Version+" (commit: 01234567, built: 2024-03-31T00:00:00Z, go1.24.0)", String())

	GitCommit = "abc"
	assert.Contains(t, String(), "commit: abc,")
	assert.Equal(t, Version, ShortString())
}
