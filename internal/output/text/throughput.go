package text

import (
	"strings"

	"ddbreport/internal/report"
)

var throughputColumns = []column{
	{title: "Size (B)", width: 16},
	{title: "Items", width: 14},
	{title: "Avg Item(B)", width: 12},
	{title: "WCU/Item", width: 9},
	{title: "Avg WCU/s", width: 10},
	{title: "Peak WCU/s", width: 11},
	{title: "Avg Rows/s", width: 11},
	{title: "Peak Rows/s", width: 12},
}

// Throughput renders the write throughput report
func (r *Renderer) Throughput(rpt report.Report) string {
	l := layout{nameWidth: r.nameWidth(rpt), columns: throughputColumns}
	width := l.width()
	start, end := formatTime(rpt)

	var out lines
	out.blank()
	out.add(strings.Repeat(bannerChar, width))
	out.addf("%sWRITE THROUGHPUT: WCU -> Rows/sec - Last %d hours", indent, rpt.Window.Hours())
	if rpt.Region != "" {
		out.addf("%sRegion: %s", indent, rpt.Region)
	}
	out.addf("%sWindow: %s  →  %s  (period %s)", indent, start, end, rpt.Period)
	out.add(strings.Repeat(bannerChar, width))

	if len(rpt.Groups) == 0 {
		out.blank()
		out.addf("%sNo tables matched.", indent)
	}

	for _, g := range rpt.Groups {
		out.blank()
		out.add(strings.Repeat(ruleChar, width))
		out.add(groupTitle(g))
		out.add(strings.Repeat(ruleChar, width))
		out.add(l.header())
		out.add(l.separator())
		for _, res := range g.Resources {
			out.add(l.row(g.DisplayName(res.Name), r.throughputCells(res)))
		}
		out.add(l.separator())
		out.add(l.row(subtotalLabel(g), r.throughputTotalCells(g.Subtotal)))
	}

	out.blank()
	out.add(strings.Repeat(bannerChar, width))
	out.add(l.row(grandTotalLabel, r.throughputTotalCells(rpt.GrandTotal)))
	out.add(strings.Repeat(bannerChar, width))

	out.blank()
	out.addf("%sNotes:", indent)
	out.add("    • WCU/Item = max(1, ceil(avg_item_bytes / 1024))  [1 WCU = 1 write of up to 1 KiB]")
	out.addf("    • Avg/Peak WCU/s from CloudWatch ConsumedWriteCapacityUnits (%s periods)", rpt.Period)
	out.add("    • Rows/s = WCU/s ÷ WCU/Item, assuming every item has the table's average size")
	out.add("      (an estimate, not a measured row count)")
	out.add("    • Peak Rows/s is a per-table peak; tables don't necessarily peak simultaneously")
	out.add("    • SUBTOTAL and GRAND TOTAL peaks are worst-case sums, not necessarily simultaneous")
	out.add("    • '-' marks per-table values that have no meaning for a total")
	out.blank()

	return out.String()
}

func (r *Renderer) throughputCells(m report.ResourceMetrics) []string {
	return []string{
		r.integer(m.StoredBytes),
		r.integer(m.ItemCount),
		r.count(m.AvgItemBytes),
		r.integer(m.UnitsPerItem),
		fixed(m.AvgUnitRate, 2),
		fixed(m.PeakUnitRate, 2),
		fixed(m.AvgRowRate, 1),
		fixed(m.PeakRowRate, 1),
	}
}

func (r *Renderer) throughputTotalCells(m report.ResourceMetrics) []string {
	return []string{
		r.integer(m.StoredBytes),
		r.integer(m.ItemCount),
		notApplicable,
		notApplicable,
		fixed(m.AvgUnitRate, 2),
		fixed(m.PeakUnitRate, 2),
		fixed(m.AvgRowRate, 1),
		fixed(m.PeakRowRate, 1),
	}
}
