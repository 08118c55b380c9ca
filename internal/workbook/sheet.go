// Package workbook persists series in an .xlsx workbook shared with
// hand-maintained sheets, and exports them as CSV.
package workbook

import (
	"IndexVault/internal/model"
)

const (
	dateHeader   = "Date"
	pctSuffix    = " % Return"
	logSuffix    = " Log Return"
	maxSheetName = 31
)

// Sheet is a table destined for one named worksheet. A nil cell is left empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// MasterSheet lays out the master series followed by the return columns of
// every price column.
func MasterSheet(name string, s *model.Series, r model.Returns) Sheet {
	sh := Sheet{Name: name, Header: []string{dateHeader}}
	sh.Header = append(sh.Header, s.Columns...)
	for _, c := range s.Columns {
		sh.Header = append(sh.Header, c+pctSuffix, c+logSuffix)
	}
	for i, row := range s.Rows {
		cells := priceCells(s.Columns, row)
		for _, c := range s.Columns {
			cells = append(cells, floatCell(r.Pct, i, c), floatCell(r.Log, i, c))
		}
		sh.Rows = append(sh.Rows, cells)
	}
	return sh
}

// ContinuousSheet lays out the forward-filled series, prices only.
func ContinuousSheet(name string, s *model.Series) Sheet {
	sh := Sheet{Name: name, Header: append([]string{dateHeader}, s.Columns...)}
	for _, row := range s.Rows {
		sh.Rows = append(sh.Rows, priceCells(s.Columns, row))
	}
	return sh
}

func priceCells(cols []string, row model.Row) []any {
	cells := make([]any, 0, 1+3*len(cols))
	cells = append(cells, row.Date.String())
	for _, c := range cols {
		if v, ok := row.Prices[c]; ok {
			cells = append(cells, v.InexactFloat64())
		} else {
			cells = append(cells, nil)
		}
	}
	return cells
}

func floatCell(vals []map[string]float64, i int, col string) any {
	if i >= len(vals) {
		return nil
	}
	if v, ok := vals[i][col]; ok {
		return v
	}
	return nil
}
