package report

import (
	"fmt"
	"strings"
)

// FallbackLabel names the bucket of tables matching no environment tag
const FallbackLabel = "other"

// separator follows the environment tag in a table name
const separator = "."

// Environment is the classification of a table: either a configured
// environment tag or the fallback bucket.
type Environment struct {
	tag      string
	fallback bool
}

// Tagged returns the environment for tag
func Tagged(tag string) Environment {
	return Environment{tag: tag}
}

// Fallback returns the bucket for tables that match no tag
func Fallback() Environment {
	return Environment{fallback: true}
}

// IsFallback reports whether e is the fallback bucket
func (e Environment) IsFallback() bool {
	return e.fallback
}

// Tag returns the environment tag, empty for the fallback bucket
func (e Environment) Tag() string {
	return e.tag
}

// Label returns the name used for the bucket in output
func (e Environment) Label() string {
	if e.fallback {
		return FallbackLabel
	}
	return e.tag
}

// MarshalText implements encoding.TextMarshaler
func (e Environment) MarshalText() ([]byte, error) {
	return []byte(e.Label()), nil
}

// ValidateTags rejects environment tags that would be shown under the same
// name as the fallback bucket
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		tag = strings.TrimSuffix(strings.TrimSpace(tag), separator)
		if strings.EqualFold(tag, FallbackLabel) {
			return fmt.Errorf("environment tag %q is reserved for tables matching no environment", tag)
		}
	}
	return nil
}

type matcher struct {
	env    Environment
	prefix string
}

// Classifier assigns table names to environments. Tags are tried in order and
// the first whose tag followed by "." prefixes the name wins, so "prod" never
// claims "production.orders".
type Classifier struct {
	matchers []matcher
}

// NewClassifier creates a classifier for the ordered environment tags. Empty
// and repeated tags are ignored.
func NewClassifier(tags []string) *Classifier {
	c := &Classifier{}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSuffix(strings.TrimSpace(tag), separator)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		c.matchers = append(c.matchers, matcher{
			env:    Tagged(tag),
			prefix: tag + separator,
		})
	}
	return c
}

// Classify returns the environment of name
func (c *Classifier) Classify(name string) Environment {
	for _, m := range c.matchers {
		if strings.HasPrefix(name, m.prefix) {
			return m.env
		}
	}
	return Fallback()
}

// Environments returns the configured environments in presentation order,
// followed by the fallback bucket.
func (c *Classifier) Environments() []Environment {
	envs := make([]Environment, 0, len(c.matchers)+1)
	for _, m := range c.matchers {
		envs = append(envs, m.env)
	}
	return append(envs, Fallback())
}
