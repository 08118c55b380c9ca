// Package pipeline runs one synchronization: load the cached master series,
// reconcile it with the quote source, persist the workbook, then report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"IndexVault/internal/collector"
	"IndexVault/internal/config"
	"IndexVault/internal/notifier"
	"IndexVault/internal/reconcile"
	"IndexVault/internal/recorder"
	"IndexVault/internal/workbook"
)

// Notifier delivers run summaries.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Runner wires the cache loader, the engine and the store writer.
type Runner struct {
	Engine          *reconcile.Engine
	WorkbookPath    string
	MasterSheet     string
	ContinuousSheet string
	CSVPath         string
	Recorder        recorder.Recorder
	Notifier        Notifier // optional
	Now             func() time.Time
}

// NewFetcher builds the quote source selected in cfg.
func NewFetcher(cfg *config.Config) collector.Fetcher {
	if cfg.Fetch.Source == "rest" {
		return collector.NewRESTFetcher(cfg.Fetch.BaseURL, cfg.Fetch.APIKey, cfg.Proxy, cfg.Fetch.Timeout)
	}
	return collector.NewYahooFetcher(cfg.Proxy, cfg.Fetch.Timeout)
}

// NewRunner creates a Runner from a validated configuration.
func NewRunner(cfg *config.Config, fetcher collector.Fetcher, rec recorder.Recorder, n Notifier) (*Runner, error) {
	epoch, err := cfg.EpochStart()
	if err != nil {
		return nil, fmt.Errorf("epoch start: %w", err)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Engine: &reconcile.Engine{
			Collector:   collector.NewCollector(fetcher, cfg.Fetch.Timeout, cfg.Fetch.Parallelism),
			Symbols:     cfg.Symbols,
			Granularity: cfg.Sync.Granularity,
			EpochStart:  epoch,
		},
		WorkbookPath:    cfg.Store.WorkbookPath,
		MasterSheet:     cfg.Store.MasterSheet,
		ContinuousSheet: cfg.Store.ContinuousSheet,
		CSVPath:         cfg.Store.CSVPath,
		Recorder:        rec,
		Notifier:        n,
		Now:             time.Now,
	}, nil
}

// Run performs one synchronization. The returned record is always non-nil and
// describes the run; the error is non-nil only when the workbook could not be
// written, in which case it is left as it was.
func (r *Runner) Run(ctx context.Context) (*recorder.RunRecord, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	run := &recorder.RunRecord{ID: recorder.NewRunID(), StartedAt: now()}
	log.Printf("[INFO] run %s started, workbook %s", run.ID, r.WorkbookPath)

	prev, err := workbook.LoadMaster(r.WorkbookPath, r.MasterSheet)
	switch {
	case err != nil:
		log.Printf("[WARN] %v, falling back to full resync", err)
		run.CacheNote = err.Error()
		prev = nil
	case prev == nil:
		log.Printf("[INFO] no cached %q sheet, full resync", r.MasterSheet)
	case prev.Len() == 0:
		run.CacheNote = fmt.Sprintf("sheet %q has no rows", r.MasterSheet)
	default:
		run.CacheFound = true
		log.Printf("[INFO] cache loaded: %d rows up to %s", prev.Len(), prev.Watermark())
	}

	res := r.Engine.Sync(ctx, prev)
	run.From = res.From.String()
	if !res.WatermarkBefore.IsZero() {
		run.WatermarkBefore = res.WatermarkBefore.String()
	}
	if !res.WatermarkAfter.IsZero() {
		run.WatermarkAfter = res.WatermarkAfter.String()
	}
	run.MasterRows = res.Master.Len()
	run.ContinuousRows = res.Continuous.Len()
	for _, s := range res.Symbols {
		sr := recorder.SymbolRecord{Ticker: s.Symbol.Ticker, Column: s.Symbol.Column(), Fetched: s.Fetched, New: s.New}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		run.Symbols = append(run.Symbols, sr)
	}

	master := workbook.MasterSheet(r.MasterSheet, res.Master, res.Returns)
	err = workbook.WriteSheets(r.WorkbookPath, master, workbook.ContinuousSheet(r.ContinuousSheet, res.Continuous))
	if err != nil {
		log.Printf("[ERROR] %v", err)
		run.Error = err.Error()
	} else if r.CSVPath != "" {
		if cerr := workbook.ExportCSV(r.CSVPath, master); cerr != nil {
			log.Printf("[WARN] csv export %s: %v", r.CSVPath, cerr)
		} else {
			log.Printf("[INFO] csv exported: %s", r.CSVPath)
		}
	}
	run.FinishedAt = now()

	r.report(ctx, run)
	return run, err
}

func (r *Runner) report(ctx context.Context, run *recorder.RunRecord) {
	summary := notifier.FormatRunSummary(run)
	log.Printf("[INFO] run %s finished\n%s", run.ID, summary)

	if err := r.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	if r.Notifier != nil {
		if err := r.Notifier.SendWithRetry(ctx, summary, 3); err != nil {
			log.Printf("[ERROR] send notification: %v", err)
		}
	}
}
