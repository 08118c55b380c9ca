package notifier

import (
	"fmt"
	"strings"

	"IndexVault/internal/recorder"
)

// FormatRunSummary renders the human-readable report of one run: whether the
// cache was used, which symbols brought nothing new, and the watermark.
func FormatRunSummary(run *recorder.RunRecord) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("IndexVault sync | %s\n", run.StartedAt.Format("2006-01-02 15:04")))
	if run.Error != "" {
		b.WriteString(fmt.Sprintf("FAILED: %s\n", run.Error))
	}

	if run.CacheFound {
		b.WriteString(fmt.Sprintf("Cache: found, watermark %s\n", run.WatermarkBefore))
	} else if run.CacheNote != "" {
		b.WriteString(fmt.Sprintf("Cache: not used (%s), full resync from %s\n", run.CacheNote, run.From))
	} else {
		b.WriteString(fmt.Sprintf("Cache: none, full resync from %s\n", run.From))
	}

	var noNew, failed []string
	for _, s := range run.Symbols {
		if s.New == 0 {
			noNew = append(noNew, s.Column)
		}
		if s.Error != "" {
			failed = append(failed, fmt.Sprintf("%s (%s)", s.Column, s.Error))
		}
	}
	if len(noNew) > 0 {
		b.WriteString(fmt.Sprintf("No new data: %s\n", strings.Join(noNew, ", ")))
	} else if len(run.Symbols) > 0 {
		b.WriteString("No new data: none\n")
	}
	for _, f := range failed {
		b.WriteString(fmt.Sprintf("Warning: %s\n", f))
	}

	b.WriteString(fmt.Sprintf("Rows: master %d, continuous %d\n", run.MasterRows, run.ContinuousRows))
	after := run.WatermarkAfter
	if after == "" {
		after = "none"
	}
	b.WriteString(fmt.Sprintf("Watermark: %s\n", after))
	return b.String()
}
