// Package text renders a report.Report as fixed-width plain text tables.
//
// Rendering only formats values that the report already holds: it never sums,
// averages or converts.
package text

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ddbreport/internal/report"
)

const (
	// DefaultMinNameWidth is the narrowest the table name column gets
	DefaultMinNameWidth = 30

	timeLayout = "2006-01-02T15:04:05Z"

	// notApplicable marks a cell whose value has no meaning for the row,
	// as opposed to a measured zero
	notApplicable = "-"

	ruleChar   = "─"
	bannerChar = "="
	indent     = "  "
)

// Options configures rendering
type Options struct {
	// MinNameWidth is the minimum width of the table name column
	MinNameWidth int
}

// Renderer formats reports
type Renderer struct {
	opts    Options
	printer *message.Printer
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	if opts.MinNameWidth <= 0 {
		opts.MinNameWidth = DefaultMinNameWidth
	}
	return &Renderer{
		opts:    opts,
		printer: message.NewPrinter(language.English),
	}
}

// Render formats rpt according to its kind
func (r *Renderer) Render(rpt report.Report) string {
	switch rpt.Kind {
	case report.Throughput:
		return r.Throughput(rpt)
	default:
		return r.ReadWrite(rpt)
	}
}

type column struct {
	title string
	width int
}

// layout holds the column geometry of one rendered table
type layout struct {
	nameWidth int
	columns   []column
}

func (l layout) row(name string, cells []string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(padRight(name, l.nameWidth))
	for i, c := range l.columns {
		b.WriteString(" ")
		b.WriteString(padLeft(cells[i], c.width))
	}
	return b.String()
}

func (l layout) header() string {
	titles := make([]string, len(l.columns))
	for i, c := range l.columns {
		titles[i] = c.title
	}
	return l.row("Table", titles)
}

func (l layout) separator() string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(strings.Repeat(ruleChar, l.nameWidth))
	for _, c := range l.columns {
		b.WriteString(" ")
		b.WriteString(strings.Repeat(ruleChar, c.width))
	}
	return b.String()
}

func (l layout) width() int {
	return utf8.RuneCountInString(l.header())
}

// nameWidth sizes the name column to the longest display name or label
func (r *Renderer) nameWidth(rpt report.Report) int {
	width := r.opts.MinNameWidth
	fit := func(s string) {
		if n := utf8.RuneCountInString(s); n > width {
			width = n
		}
	}
	fit(grandTotalLabel)
	for _, g := range rpt.Groups {
		fit(subtotalLabel(g))
		for _, res := range g.Resources {
			fit(g.DisplayName(res.Name))
		}
	}
	return width
}

const grandTotalLabel = "GRAND TOTAL"

func subtotalLabel(g report.Group) string {
	return fmt.Sprintf("SUBTOTAL (%s)", strings.ToUpper(g.Environment.Label()))
}

func groupTitle(g report.Group) string {
	kind := "Environment"
	if g.Environment.IsFallback() {
		kind = "Group"
	}
	return fmt.Sprintf("%s%s: %s", indent, kind, strings.ToUpper(g.Environment.Label()))
}

// count formats an integer-like value with thousands separators
func (r *Renderer) count(v float64) string {
	if v == 0 {
		return "0"
	}
	return r.printer.Sprintf("%d", int64(math.RoundToEven(v)))
}

// integer formats an exact integer with thousands separators
func (r *Renderer) integer(v int64) string {
	if v == 0 {
		return "0"
	}
	return r.printer.Sprintf("%d", v)
}

// fixed formats v with the given number of decimals; zero renders as an
// explicit zero of the same precision
func fixed(v float64, decimals int) string {
	if v == 0 {
		if decimals == 0 {
			return "0"
		}
		return "0." + strings.Repeat("0", decimals)
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func formatTime(rpt report.Report) (string, string) {
	return rpt.Window.Start.UTC().Format(timeLayout), rpt.Window.End.UTC().Format(timeLayout)
}

type lines struct {
	b strings.Builder
}

func (l *lines) add(s string) {
	l.b.WriteString(s)
	l.b.WriteString("\n")
}

func (l *lines) addf(format string, args ...interface{}) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteString("\n")
}

func (l *lines) blank() {
	l.b.WriteString("\n")
}

func (l *lines) String() string {
	return l.b.String()
}
