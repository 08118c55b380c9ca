package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Observation is a single closing price reported by a quote source.
type Observation struct {
	Date  Date
	Close decimal.Decimal
}

// Symbol is a tracked instrument. Ticker is what the quote source understands,
// Name is the column header in the archive.
type Symbol struct {
	Ticker string `yaml:"ticker"`
	Name   string `yaml:"name"`
}

// Column returns the header used for the symbol's price column.
func (s Symbol) Column() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Ticker
}

// Row holds the closing prices observed on one date. A column missing from
// Prices is absent for that date, which is distinct from a zero price.
type Row struct {
	Date   Date
	Prices map[string]decimal.Decimal
}

// Series is a date-ordered table of closing prices, unique by date.
type Series struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Watermark returns the latest date in the series, or the zero Date when empty.
func (s *Series) Watermark() Date {
	if s.Len() == 0 {
		return Date{}
	}
	return s.Rows[len(s.Rows)-1].Date
}

// First returns the earliest date in the series, or the zero Date when empty.
func (s *Series) First() Date {
	if s.Len() == 0 {
		return Date{}
	}
	return s.Rows[0].Date
}

// Value returns the price of col on row i.
func (s *Series) Value(i int, col string) (decimal.Decimal, bool) {
	v, ok := s.Rows[i].Prices[col]
	return v, ok
}

// Dates lists the row dates in order.
func (s *Series) Dates() []Date {
	out := make([]Date, 0, s.Len())
	for _, r := range s.Rows {
		out = append(out, r.Date)
	}
	return out
}

// HasColumn reports whether col is one of the series' price columns.
func (s *Series) HasColumn(col string) bool {
	return slices.Contains(s.Columns, col)
}

// Returns holds the derived return columns of a series, aligned by row index.
// Pct[i][col] and Log[i][col] are present only where row i has a price for col.
type Returns struct {
	Pct []map[string]float64
	Log []map[string]float64
}

// Granularity selects which days make up the continuous grid.
type Granularity string

const (
	Calendar Granularity = "calendar"
	Business Granularity = "business"
)

// Includes reports whether d is a grid day under g.
func (g Granularity) Includes(d Date) bool {
	if g == Business {
		return d.IsBusinessDay()
	}
	return true
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == Calendar || g == Business
}
