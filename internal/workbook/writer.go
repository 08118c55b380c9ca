package workbook

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"IndexVault/internal/model"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteSheets replaces the named sheets of the workbook at path and leaves
// every other sheet as it was. A missing workbook is created with only the
// given sheets.
//
// The workbook is assembled in memory, saved next to path and renamed over
// it, so a failure leaves the previous file untouched. Errors wrap
// model.ErrStoreWriteFailed.
func WriteSheets(path string, sheets ...Sheet) error {
	if err := writeSheets(path, sheets); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStoreWriteFailed, path, err)
	}
	return nil
}

func writeSheets(path string, sheets []Sheet) error {
	for i, a := range sheets {
		for _, b := range sheets[i+1:] {
			// sheet names are case-insensitive in a workbook
			if strings.EqualFold(a.Name, b.Name) {
				return fmt.Errorf("sheets %q and %q name the same sheet", a.Name, b.Name)
			}
		}
	}
	f, created, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, sh := range sheets {
		if err := replaceSheet(f, sh); err != nil {
			return fmt.Errorf("sheet %q: %w", sh.Name, err)
		}
	}
	if created && !slices.ContainsFunc(sheets, func(s Sheet) bool { return s.Name == defaultSheet }) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("drop %s: %w", defaultSheet, err)
		}
	}
	if len(sheets) > 0 {
		if idx, err := f.GetSheetIndex(sheets[0].Name); err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}
	return saveAtomic(f, path)
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	// never fall back to a fresh file here: that would drop the other sheets
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("open existing workbook: %w", err)
	}
	return f, false, nil
}

// replaceSheet streams sh into a staging sheet, then swaps it in for the
// current one.
func replaceSheet(f *excelize.File, sh Sheet) error {
	if sh.Name == "" || len([]rune(sh.Name)) > maxSheetName {
		return fmt.Errorf("invalid sheet name %q", sh.Name)
	}
	staging := stagingName(f, sh.Name)
	if _, err := f.NewSheet(staging); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(staging)
	if err != nil {
		return err
	}
	header := make([]any, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, cells := range sh.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if exists(f, sh.Name) {
		if err := f.DeleteSheet(sh.Name); err != nil {
			return err
		}
	}
	return f.SetSheetName(staging, sh.Name)
}

// stagingName returns a sheet name derived from name that is not yet taken
// in f. Existing sheets are never reused as staging.
func stagingName(f *excelize.File, name string) string {
	for n := 0; ; n++ {
		prefix := "~"
		if n > 0 {
			prefix = "~" + strconv.Itoa(n) + "~"
		}
		r := []rune(prefix + name)
		if len(r) > maxSheetName {
			r = r[:maxSheetName]
		}
		if !exists(f, string(r)) {
			return string(r)
		}
	}
}

func exists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".indexvault-*.xlsx")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(targetMode(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	log.Printf("[INFO] workbook saved: %s", path)
	return nil
}

// targetMode is the permission a rewritten file should carry: that of the
// file being replaced, or 0644 for a new one.
func targetMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}
