package reconcile

import (
	"IndexVault/internal/calculator"
	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
)

// Returns computes the percent and log return of every column against that
// column's previous observation in master. A column's first observation gets
// 0 for both; rows without a price for the column get no return.
func Returns(master *model.Series) model.Returns {
	n := master.Len()
	r := model.Returns{
		Pct: make([]map[string]float64, n),
		Log: make([]map[string]float64, n),
	}
	prev := make(map[string]decimal.Decimal, len(master.Columns))
	for i := 0; i < n; i++ {
		r.Pct[i] = make(map[string]float64, len(master.Columns))
		r.Log[i] = make(map[string]float64, len(master.Columns))
		for _, col := range master.Columns {
			cur, ok := master.Value(i, col)
			if !ok {
				continue
			}
			p, seen := prev[col]
			if !seen {
				r.Pct[i][col], r.Log[i][col] = 0, 0
			} else {
				r.Pct[i][col] = calculator.PercentReturn(p, cur)
				r.Log[i][col] = calculator.LogReturn(p, cur)
			}
			prev[col] = cur
		}
	}
	return r
}
