package reconcile

import (
	"time"

	"IndexVault/internal/collector"
	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
)

func day(d int) model.Date { return model.NewDate(2024, time.January, d) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// row builds a row from alternating column/price pairs.
func row(d int, kv ...string) model.Row {
	r := model.Row{Date: day(d), Prices: map[string]decimal.Decimal{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Prices[kv[i]] = dec(kv[i+1])
	}
	return r
}

func series(cols []string, rows ...model.Row) *model.Series {
	return &model.Series{Columns: cols, Rows: rows}
}

func fetch(ticker string, o ...model.Observation) collector.SymbolFetch {
	return collector.SymbolFetch{Symbol: model.Symbol{Ticker: ticker}, Observations: o}
}

func ob(d int, price string) model.Observation {
	return model.Observation{Date: day(d), Close: dec(price)}
}

func price(s *model.Series, i int, col string) string {
	v, ok := s.Value(i, col)
	if !ok {
		return "absent"
	}
	return v.String()
}
