package text

import (
	"strings"

	"ddbreport/internal/report"
)

var readWriteColumns = []column{
	{title: "Read CUs", width: 14},
	{title: "Read GiB", width: 10},
	{title: "Write CUs", width: 14},
	{title: "Write GiB", width: 10},
	{title: "Total GiB", width: 10},
	{title: "GiB/day", width: 10},
}

// ReadWrite renders the read/write volume report
func (r *Renderer) ReadWrite(rpt report.Report) string {
	l := layout{nameWidth: r.nameWidth(rpt), columns: readWriteColumns}
	width := l.width()
	start, end := formatTime(rpt)

	var out lines
	out.blank()
	out.add(strings.Repeat(bannerChar, width))
	out.addf("%sDynamoDB Read / Write Report - Last %d hours", indent, rpt.Window.Hours())
	if rpt.Region != "" {
		out.addf("%sRegion: %s", indent, rpt.Region)
	}
	out.addf("%sWindow: %s  →  %s", indent, start, end)
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
			out.add(l.row(g.DisplayName(res.Name), r.readWriteCells(res)))
		}
		out.add(l.separator())
		out.add(l.row(subtotalLabel(g), r.readWriteCells(g.Subtotal)))
	}

	out.blank()
	out.add(strings.Repeat(bannerChar, width))
	out.add(l.row(grandTotalLabel, r.readWriteCells(rpt.GrandTotal)))
	out.add(strings.Repeat(bannerChar, width))

	out.blank()
	out.addf("%sNotes:", indent)
	out.add("    • 1 WCU = 1 KiB written   → Write GiB = WCUs × 1,024 / 1,073,741,824")
	out.add("    • 1 RCU = 4 KiB read      → Read GiB  = RCUs × 4,096 / 1,073,741,824")
	out.add("    • GiB is binary: 1 GiB = 1024³ bytes, not a decimal GB")
	out.add("    • RCUs reflect strongly-consistent-equivalent units")
	out.add("      (eventually consistent reads consume 0.5 RCU per 4 KiB)")
	out.addf("    • GiB/day = Total GiB averaged over the %d hour window", rpt.Window.Hours())
	out.blank()

	return out.String()
}

func (r *Renderer) readWriteCells(m report.ResourceMetrics) []string {
	return []string{
		r.count(m.ReadUnits),
		fixed(m.ReadGiB, 4),
		r.count(m.WriteUnits),
		fixed(m.WriteGiB, 4),
		fixed(m.TotalGiB, 4),
		fixed(m.GiBPerDay, 4),
	}
}
