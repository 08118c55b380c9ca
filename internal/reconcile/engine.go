package reconcile

import (
	"context"
	"log"

	"IndexVault/internal/collector"
	"IndexVault/internal/model"
)

// Engine synchronizes a master series with the quote source.
type Engine struct {
	Collector   *collector.Collector
	Symbols     []model.Symbol
	Granularity model.Granularity
	EpochStart  model.Date
}

// SymbolStatus reports what one symbol contributed to a run.
type SymbolStatus struct {
	Symbol model.Symbol
	// From is where the fetch started: the run's start, or EpochStart for a
	// symbol the cache has no column for.
	From model.Date
	// Fetched counts the observations returned, including a re-fetched
	// watermark date.
	Fetched int
	// New counts observations dated after the previous watermark.
	New int
	Err error
}

// Result is the outcome of one synchronization.
type Result struct {
	Master          *model.Series
	Continuous      *model.Series
	Returns         model.Returns
	From            model.Date
	WatermarkBefore model.Date
	WatermarkAfter  model.Date
	Symbols         []SymbolStatus
}

// NoNewData lists the columns of symbols that brought nothing past the
// previous watermark, failed fetches included.
func (r *Result) NoNewData() []string {
	var out []string
	for _, s := range r.Symbols {
		if s.New == 0 {
			out = append(out, s.Symbol.Column())
		}
	}
	return out
}

// Warnings returns the fetch failures of the run.
func (r *Result) Warnings() []error {
	var out []error
	for _, s := range r.Symbols {
		if s.Err != nil {
			out = append(out, s.Err)
		}
	}
	return out
}

// Sync fetches the tail missing from prev (the whole history when prev is
// empty, or for a symbol prev has no column for), merges it in and derives
// the continuous series and returns.
// Fetch failures degrade to "no new data" for the symbol concerned, so Sync
// always yields a valid, possibly empty, result.
func (e *Engine) Sync(ctx context.Context, prev *model.Series) *Result {
	if prev == nil {
		prev = &model.Series{}
	}
	res := &Result{WatermarkBefore: prev.Watermark()}
	res.From = res.WatermarkBefore
	if res.From.IsZero() {
		res.From = e.EpochStart
		log.Printf("[INFO] no watermark, fetching full history from %s", res.From)
	} else {
		log.Printf("[INFO] watermark %s, fetching increment", res.From)
	}

	fetches := e.collect(ctx, prev, res.From)
	for _, f := range fetches {
		st := SymbolStatus{Symbol: f.Symbol, From: f.From, Fetched: len(f.Observations), Err: f.Err}
		for _, o := range f.Observations {
			if f.From.Before(res.From) || res.WatermarkBefore.IsZero() || o.Date.After(res.WatermarkBefore) {
				st.New++
			}
		}
		res.Symbols = append(res.Symbols, st)
	}

	inc := Align(fetches)
	res.Master = Merge(prev, inc)
	res.Continuous = Continuous(res.Master, e.Granularity)
	res.Returns = Returns(res.Master)
	res.WatermarkAfter = res.Master.Watermark()

	log.Printf("[INFO] master %d -> %d rows, continuous %d rows (%s), watermark %s -> %s",
		prev.Len(), res.Master.Len(), res.Continuous.Len(), e.Granularity,
		dateOrNone(res.WatermarkBefore), dateOrNone(res.WatermarkAfter))
	return res
}

// collect fetches every symbol from "from", except symbols whose column the
// cache does not have yet: those get their whole history from EpochStart.
// The result follows the configured symbol order.
func (e *Engine) collect(ctx context.Context, prev *model.Series, from model.Date) []collector.SymbolFetch {
	var known, added []int
	for i, sym := range e.Symbols {
		if prev.Len() > 0 && !prev.HasColumn(sym.Column()) && e.EpochStart.Before(from) {
			added = append(added, i)
		} else {
			known = append(known, i)
		}
	}

	out := make([]collector.SymbolFetch, len(e.Symbols))
	for _, group := range []struct {
		idx  []int
		from model.Date
	}{{known, from}, {added, e.EpochStart}} {
		if len(group.idx) == 0 {
			continue
		}
		syms := make([]model.Symbol, len(group.idx))
		for j, i := range group.idx {
			syms[j] = e.Symbols[i]
		}
		if group.from != from {
			log.Printf("[INFO] %d new symbols, fetching their history from %s", len(syms), group.from)
		}
		for j, f := range e.Collector.Collect(ctx, syms, group.from) {
			out[group.idx[j]] = f
		}
	}
	return out
}

func dateOrNone(d model.Date) string {
	if d.IsZero() {
		return "none"
	}
	return d.String()
}
