package report

import (
	"time"

	"ddbreport/internal/capacity"
)

// Descriptor holds the static size information of a table
type Descriptor struct {
	Name        string `json:"name"`
	StoredBytes int64  `json:"stored_bytes"`
	ItemCount   int64  `json:"item_count"`
}

// AverageItemBytes returns the average item size, 0 for an empty table
func (d Descriptor) AverageItemBytes() float64 {
	return capacity.AverageItemBytes(d.StoredBytes, d.ItemCount)
}

// ResourceMetrics holds the derived throughput figures of one table, or the
// element-wise sum of several tables when used as a subtotal.
//
// TotalBytes and TotalGiB always equal the sum of their read and write parts.
type ResourceMetrics struct {
	Name string `json:"name"`

	ReadUnits  float64 `json:"read_units"`
	WriteUnits float64 `json:"write_units"`
	ReadBytes  float64 `json:"read_bytes"`
	WriteBytes float64 `json:"write_bytes"`
	TotalBytes float64 `json:"total_bytes"`
	ReadGiB    float64 `json:"read_gib"`
	WriteGiB   float64 `json:"write_gib"`
	TotalGiB   float64 `json:"total_gib"`
	GiBPerDay  float64 `json:"gib_per_day"`

	StoredBytes  int64   `json:"stored_bytes,omitempty"`
	ItemCount    int64   `json:"item_count,omitempty"`
	AvgItemBytes float64 `json:"avg_item_bytes,omitempty"`
	UnitsPerItem int64   `json:"units_per_item,omitempty"`
	AvgUnitRate  float64 `json:"avg_unit_rate,omitempty"`
	PeakUnitRate float64 `json:"peak_unit_rate,omitempty"`
	AvgRowRate   float64 `json:"avg_row_rate,omitempty"`
	PeakRowRate  float64 `json:"peak_row_rate,omitempty"`
}

// NewReadWrite builds the metrics of a table from its consumed read and write
// units summed over window.
func NewReadWrite(name string, readUnits, writeUnits float64, window time.Duration) ResourceMetrics {
	m := ResourceMetrics{
		Name:       name,
		ReadUnits:  nonNegative(readUnits),
		WriteUnits: nonNegative(writeUnits),
		ReadBytes:  capacity.ReadBytes(readUnits),
		WriteBytes: capacity.WriteBytes(writeUnits),
	}
	m.ReadGiB = capacity.ToGiB(m.ReadBytes)
	m.WriteGiB = capacity.ToGiB(m.WriteBytes)
	m.settle()
	m.GiBPerDay = capacity.PerDay(m.TotalGiB, window)
	return m
}

// NewThroughput builds the write-throughput metrics of a table from its
// descriptor and its per-period consumed write unit sums.
func NewThroughput(desc Descriptor, writeSeries []float64, period time.Duration) ResourceMetrics {
	avgItem := desc.AverageItemBytes()
	perItem := capacity.UnitsPerItem(avgItem)
	rates := capacity.SeriesRates(writeSeries, period)

	var writeUnits float64
	for _, v := range writeSeries {
		writeUnits += nonNegative(v)
	}

	m := ResourceMetrics{
		Name:         desc.Name,
		WriteUnits:   writeUnits,
		WriteBytes:   capacity.WriteBytes(writeUnits),
		StoredBytes:  nonNegativeInt(desc.StoredBytes),
		ItemCount:    nonNegativeInt(desc.ItemCount),
		AvgItemBytes: avgItem,
		UnitsPerItem: perItem,
		AvgUnitRate:  rates.Average,
		PeakUnitRate: rates.Peak,
		AvgRowRate:   capacity.RowRate(rates.Average, perItem),
		PeakRowRate:  capacity.RowRate(rates.Peak, perItem),
	}
	m.WriteGiB = capacity.ToGiB(m.WriteBytes)
	m.settle()
	return m
}

// add folds o into m element-wise. Average item size and units per item are
// per-table properties and are not summed.
func (m *ResourceMetrics) add(o ResourceMetrics) {
	m.ReadUnits += o.ReadUnits
	m.WriteUnits += o.WriteUnits
	m.ReadBytes += o.ReadBytes
	m.WriteBytes += o.WriteBytes
	m.ReadGiB += o.ReadGiB
	m.WriteGiB += o.WriteGiB
	m.GiBPerDay += o.GiBPerDay
	m.StoredBytes += o.StoredBytes
	m.ItemCount += o.ItemCount
	m.AvgUnitRate += o.AvgUnitRate
	m.PeakUnitRate += o.PeakUnitRate
	m.AvgRowRate += o.AvgRowRate
	m.PeakRowRate += o.PeakRowRate
}

// settle recomputes the derived totals from their parts
func (m *ResourceMetrics) settle() {
	m.TotalBytes = m.ReadBytes + m.WriteBytes
	m.TotalGiB = m.ReadGiB + m.WriteGiB
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func nonNegativeInt(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
