// Package tables resolves which DynamoDB tables a report covers.
package tables

import (
	"sort"
	"strings"
)

// Selection describes how table names are resolved
type Selection struct {
	// Environments are the environment tags, e.g. prod, staging, dev
	Environments []string
	// Namespace is the optional segment after the environment tag
	Namespace string
}

// Prefix returns the full name prefix of env, e.g. "prod.features."
func (s Selection) Prefix(env string) string {
	env = strings.Trim(strings.TrimSpace(env), ".")
	ns := strings.Trim(strings.TrimSpace(s.Namespace), ".")
	if ns == "" {
		return env + "."
	}
	return env + "." + ns + "."
}

// Prefixes returns the discovery prefix of every environment
func (s Selection) Prefixes() []string {
	var prefixes []string
	for _, env := range s.Environments {
		if strings.Trim(strings.TrimSpace(env), ".") == "" {
			continue
		}
		prefixes = append(prefixes, s.Prefix(env))
	}
	return prefixes
}

// Expand turns the requested names into full table names. A name containing
// "." is taken as a full table name; any other name is a short name expanded
// across every environment. The result is sorted and free of duplicates.
func (s Selection) Expand(names []string) []string {
	var full []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.Contains(name, ".") {
			full = append(full, name)
			continue
		}
		for _, prefix := range s.Prefixes() {
			full = append(full, prefix+name)
		}
	}
	return Unique(full)
}

// Filter returns the names starting with any of the selection's prefixes,
// sorted and de-duplicated.
func (s Selection) Filter(names []string) []string {
	prefixes := s.Prefixes()
	var matched []string
	for _, name := range names {
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				matched = append(matched, name)
				break
			}
		}
	}
	return Unique(matched)
}

// Unique returns the sorted distinct values of names
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
