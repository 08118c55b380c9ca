package workbook

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"IndexVault/internal/model"
	"IndexVault/internal/reconcile"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// LoadMaster reads the master series cached in sheet of the workbook at path.
//
// A missing workbook or sheet returns (nil, nil): there is no cache. A sheet
// that exists but does not have the expected shape returns an error wrapping
// model.ErrCacheUnreadable. Callers treat both the same way, by resyncing the
// full history; the error only tells them why.
func LoadMaster(path, sheet string) (*model.Series, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrCacheUnreadable, path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", model.ErrCacheUnreadable, sheet, err)
	}
	s, err := parseMaster(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", model.ErrCacheUnreadable, sheet, err)
	}
	return s, nil
}

// parseMaster converts raw sheet rows into a series. Return columns are
// skipped, they are recomputed on every run.
func parseMaster(rows [][]string) (*model.Series, error) {
	if len(rows) == 0 || len(rows[0]) == 0 || strings.TrimSpace(rows[0][0]) != dateHeader {
		return nil, fmt.Errorf("missing %q header", dateHeader)
	}

	parsed := &model.Series{}
	cols := map[int]string{}
	for j, h := range rows[0][1:] {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasSuffix(h, pctSuffix) || strings.HasSuffix(h, logSuffix) {
			continue
		}
		if parsed.HasColumn(h) {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		cols[j+1] = h
		parsed.Columns = append(parsed.Columns, h)
	}

	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		line := i + 2
		d, err := parseDateCell(cells[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", line, err)
		}
		row := model.Row{Date: d, Prices: make(map[string]decimal.Decimal, len(cols))}
		for j, col := range cols {
			if j >= len(cells) || strings.TrimSpace(cells[j]) == "" {
				continue
			}
			v, err := decimal.NewFromString(strings.TrimSpace(cells[j]))
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %v", line, col, err)
			}
			if v.IsNegative() {
				return nil, fmt.Errorf("row %d column %q: negative price %s", line, col, v)
			}
			row.Prices[col] = v
		}
		parsed.Rows = append(parsed.Rows, row)
	}

	// a hand-edited sheet may be out of order or repeat a date; the later
	// line wins, as it would for a fresh fetch
	return reconcile.Merge(nil, parsed), nil
}

// parseDateCell accepts ISO text as written by WriteSheets, or an Excel date
// serial when the cell was re-typed by hand.
func parseDateCell(cell string) (model.Date, error) {
	cell = strings.TrimSpace(cell)
	if d, err := model.ParseDate(cell); err == nil {
		return d, nil
	}
	if len(cell) >= 10 {
		if d, err := model.ParseDate(cell[:10]); err == nil {
			return d, nil // "2024-01-03 00:00:00"
		}
	}
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q", cell)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date serial %q: %v", cell, err)
	}
	return model.DateOf(t), nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
