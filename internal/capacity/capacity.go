// Package capacity converts DynamoDB consumed capacity units into bytes and
// row-rate estimates.
//
// Byte figures follow the provider's unit-cost model: one write unit covers
// 1 KiB written and one read unit covers 4 KiB read with strong consistency.
// Eventually consistent reads consume half a unit per 4 KiB, so the byte
// estimate is derived from consumed units rather than from request counts.
//
// Row rates assume every item in a table has the table's average size. They
// are estimates, not measurements.
package capacity

import (
	"math"
	"time"
)

const (
	// WriteUnitBytes is the number of bytes covered by one write capacity unit
	WriteUnitBytes = 1024

	// ReadUnitBytes is the number of bytes covered by one strongly consistent read capacity unit
	ReadUnitBytes = 4 * 1024

	// BytesPerGiB is a binary gigabyte (1024³ bytes)
	BytesPerGiB = 1024 * 1024 * 1024

	// bytesPerItemWriteUnit is the item size one write unit can store per write
	bytesPerItemWriteUnit = 1024
)

// ReadBytes returns the bytes read for the given consumed read units
func ReadBytes(units float64) float64 {
	if units <= 0 {
		return 0
	}
	return units * ReadUnitBytes
}

// WriteBytes returns the bytes written for the given consumed write units
func WriteBytes(units float64) float64 {
	if units <= 0 {
		return 0
	}
	return units * WriteUnitBytes
}

// ToGiB converts bytes to binary gigabytes
func ToGiB(bytes float64) float64 {
	return bytes / BytesPerGiB
}

// PerDay normalizes a total accumulated over window to a per-day amount.
// A non-positive window yields 0.
func PerDay(total float64, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	days := window.Hours() / 24
	return total / days
}

// AverageItemBytes returns storedBytes / itemCount, or 0 for an empty table
func AverageItemBytes(storedBytes, itemCount int64) float64 {
	if itemCount <= 0 || storedBytes <= 0 {
		return 0
	}
	return float64(storedBytes) / float64(itemCount)
}

// UnitsPerItem returns the write units one logical write of an average item
// consumes: max(1, ceil(avg/1024)). An average size of 0 costs one unit.
func UnitsPerItem(avgItemBytes float64) int64 {
	if avgItemBytes <= 0 {
		return 1
	}
	units := int64(math.Ceil(avgItemBytes / bytesPerItemWriteUnit))
	if units < 1 {
		return 1
	}
	return units
}

// RowRate converts a unit rate into a row rate
func RowRate(unitRate float64, unitsPerItem int64) float64 {
	if unitsPerItem <= 0 || unitRate <= 0 {
		return 0
	}
	return unitRate / float64(unitsPerItem)
}

// Rates holds per-second unit rates derived from a per-period series
type Rates struct {
	Average float64
	Peak    float64
}

// SeriesRates derives the average and peak per-second rates from a series of
// per-period sums. An empty series or a non-positive period yields zero rates.
func SeriesRates(series []float64, period time.Duration) Rates {
	seconds := period.Seconds()
	if len(series) == 0 || seconds <= 0 {
		return Rates{}
	}

	var sum, peak float64
	for _, v := range series {
		sum += v
		if v > peak {
			peak = v
		}
	}

	return Rates{
		Average: (sum / float64(len(series))) / seconds,
		Peak:    peak / seconds,
	}
}
