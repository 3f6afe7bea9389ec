// Package report groups per-table metrics into environment buckets and
// computes subtotals and a grand total.
//
// Sums are folded in lexicographic table order so identical input always
// yields bit-identical totals.
package report

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies which report variant a Report holds
type Kind string

const (
	// ReadWrite is the read/write volume report
	ReadWrite Kind = "rw"
	// Throughput is the write throughput (rows/sec) report
	Throughput Kind = "throughput"
)

// Window is the half-open time range [Start, End) the metrics cover
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the window, 0 if it is inverted
func (w Window) Duration() time.Duration {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Hours returns the window length in whole hours
func (w Window) Hours() int {
	return int(w.Duration() / time.Hour)
}

// Group is one environment bucket of a report
type Group struct {
	Environment Environment       `json:"environment"`
	Prefix      string            `json:"prefix,omitempty"`
	Resources   []ResourceMetrics `json:"resources"`
	Subtotal    ResourceMetrics   `json:"subtotal"`
}

// DisplayName returns name with the bucket's common prefix removed
func (g Group) DisplayName(name string) string {
	if g.Prefix == "" {
		return name
	}
	short := strings.TrimPrefix(name, g.Prefix)
	if short == "" {
		return name
	}
	return short
}

// Report is the aggregated, render-ready result of a run
type Report struct {
	Kind       Kind            `json:"kind"`
	Region     string          `json:"region,omitempty"`
	Window     Window          `json:"window"`
	Period     time.Duration   `json:"period"`
	Groups     []Group         `json:"groups"`
	GrandTotal ResourceMetrics `json:"grand_total"`
}

// Options configures aggregation
type Options struct {
	// Environments are the ordered environment tags
	Environments []string
	// Namespace is the name segment following the environment tag that is
	// stripped from display names, e.g. "orders" in "prod.orders.events"
	Namespace string
}

// Aggregate groups resources by environment, sorts every bucket by table name
// and computes the bucket subtotals and the grand total.
func Aggregate(resources []ResourceMetrics, opts Options) Report {
	classifier := NewClassifier(opts.Environments)

	buckets := make(map[Environment][]ResourceMetrics)
	for _, r := range resources {
		env := classifier.Classify(r.Name)
		buckets[env] = append(buckets[env], r)
	}

	var rpt Report
	for _, env := range classifier.Environments() {
		members, ok := buckets[env]
		if !ok {
			continue
		}

		sorted := make([]ResourceMetrics, len(members))
		copy(sorted, members)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Name < sorted[j].Name
		})

		group := Group{
			Environment: env,
			Prefix:      displayPrefix(env, opts.Namespace),
			Resources:   sorted,
			Subtotal:    Sum(env.Label(), sorted),
		}
		rpt.Groups = append(rpt.Groups, group)
	}

	subtotals := make([]ResourceMetrics, len(rpt.Groups))
	for i, g := range rpt.Groups {
		subtotals[i] = g.Subtotal
	}
	rpt.GrandTotal = Sum("total", subtotals)

	return rpt
}

// Sum folds items element-wise in the given order
func Sum(name string, items []ResourceMetrics) ResourceMetrics {
	total := ResourceMetrics{Name: name}
	for _, item := range items {
		total.add(item)
	}
	total.settle()
	return total
}

func displayPrefix(env Environment, namespace string) string {
	if env.IsFallback() {
		return ""
	}
	namespace = strings.Trim(namespace, separator)
	if namespace == "" {
		return env.Tag() + separator
	}
	return env.Tag() + separator + namespace + separator
}
