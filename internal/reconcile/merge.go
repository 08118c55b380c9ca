// Package reconcile turns a cached master series and a freshly fetched
// increment into the new master series, its continuous (forward-filled)
// counterpart and the per-column return columns.
package reconcile

import (
	"maps"
	"slices"

	"IndexVault/internal/collector"
	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
)

// Align joins per-symbol observations into one series with a full outer join
// on date. A date seen for a single symbol still becomes a row; the other
// columns are absent on it. Columns follow the order of fetches.
func Align(fetches []collector.SymbolFetch) *model.Series {
	s := &model.Series{Columns: make([]string, 0, len(fetches))}
	byDate := make(map[model.Date]model.Row)
	for _, f := range fetches {
		col := f.Symbol.Column()
		if !slices.Contains(s.Columns, col) {
			s.Columns = append(s.Columns, col)
		}
		for _, o := range f.Observations {
			row, ok := byDate[o.Date]
			if !ok {
				row = model.Row{Date: o.Date, Prices: make(map[string]decimal.Decimal)}
				byDate[o.Date] = row
			}
			row.Prices[col] = o.Close
		}
	}
	s.Rows = sortedRows(byDate)
	return s
}

// NewestWins is the tie-break applied when two rows share a date: every price
// present in newer replaces the one in older, and prices only older carries
// are kept. The quote source may correct a close after the fact, so the
// fresher value is the one to trust, but a symbol that failed to fetch must
// not erase what is already archived.
func NewestWins(older, newer model.Row) model.Row {
	out := model.Row{Date: newer.Date, Prices: make(map[string]decimal.Decimal, len(older.Prices)+len(newer.Prices))}
	maps.Copy(out.Prices, older.Prices)
	maps.Copy(out.Prices, newer.Prices)
	return out
}

// Merge combines the cached master series with an increment. Rows are keyed by
// date, so the result holds each date once; overlapping dates are resolved
// with NewestWins, the increment being newer. The result is sorted by date.
//
// Columns keep the increment's order, followed by any column only the cache has.
func Merge(prev, inc *model.Series) *model.Series {
	out := &model.Series{}
	for _, s := range []*model.Series{inc, prev} {
		if s == nil {
			continue
		}
		for _, c := range s.Columns {
			if !slices.Contains(out.Columns, c) {
				out.Columns = append(out.Columns, c)
			}
		}
	}

	byDate := make(map[model.Date]model.Row, prev.Len()+inc.Len())
	add := func(s *model.Series) {
		if s == nil {
			return
		}
		for _, r := range s.Rows {
			if cur, ok := byDate[r.Date]; ok {
				byDate[r.Date] = NewestWins(cur, r)
				continue
			}
			byDate[r.Date] = NewestWins(model.Row{}, r)
		}
	}
	add(prev)
	add(inc)

	out.Rows = sortedRows(byDate)
	return out
}

func sortedRows(byDate map[model.Date]model.Row) []model.Row {
	rows := slices.Collect(maps.Values(byDate))
	slices.SortFunc(rows, func(a, b model.Row) int { return a.Date.Compare(b.Date) })
	return rows
}
