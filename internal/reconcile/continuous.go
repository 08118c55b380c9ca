package reconcile

import (
	"maps"

	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
)

// Continuous reindexes master onto every grid day between its first and last
// date and carries each column's latest known price forward. Observations on
// days outside the grid (a Saturday close in business mode) still feed the
// carry. A column stays absent until its first observation; nothing is
// back-filled.
func Continuous(master *model.Series, g model.Granularity) *model.Series {
	out := &model.Series{Columns: append([]string(nil), master.Columns...)}
	if master.Len() == 0 {
		return out
	}

	last := make(map[string]decimal.Decimal, len(master.Columns))
	i := 0
	end := master.Watermark()
	for d := master.First(); !d.After(end); d = d.Add(1) {
		for i < len(master.Rows) && !master.Rows[i].Date.After(d) {
			maps.Copy(last, master.Rows[i].Prices)
			i++
		}
		if !g.Includes(d) {
			continue
		}
		out.Rows = append(out.Rows, model.Row{Date: d, Prices: maps.Clone(last)})
	}
	return out
}
