package collector

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"IndexVault/internal/model"

	"golang.org/x/sync/errgroup"
)

// SymbolFetch is the outcome of fetching one symbol. Err is non-nil (and wraps
// model.ErrFetchUnavailable) when the fetch failed; Observations is then empty.
type SymbolFetch struct {
	Symbol       model.Symbol
	From         model.Date
	Observations []model.Observation
	Err          error
}

// Collector fans out per-symbol fetches and joins them in symbol order.
type Collector struct {
	Fetcher     Fetcher
	Timeout     time.Duration
	Parallelism int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, timeout time.Duration, parallelism int) *Collector {
	return &Collector{Fetcher: fetcher, Timeout: timeout, Parallelism: parallelism}
}

// Collect fetches every symbol starting at from. Failures are confined to the
// symbol they happen on. The returned slice is index-aligned with symbols, so
// the order in which fetches complete never shows in the result.
func (c *Collector) Collect(ctx context.Context, symbols []model.Symbol, from model.Date) []SymbolFetch {
	results := make([]SymbolFetch, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	if c.Parallelism > 0 {
		g.SetLimit(c.Parallelism)
	}
	for i, sym := range symbols {
		g.Go(func() error {
			obs, err := c.fetchOne(gctx, sym.Ticker, from)
			res := SymbolFetch{Symbol: sym, From: from}
			if err != nil {
				res.Err = fmt.Errorf("%s: %w: %v", sym.Ticker, model.ErrFetchUnavailable, err)
				log.Printf("[WARN] fetch %s (%s) from %s failed, treating as no new data: %v",
					sym.Ticker, sym.Column(), from, err)
			} else {
				res.Observations = normalize(obs, from)
				log.Printf("[INFO] fetched %s (%s): %d observations since %s",
					sym.Ticker, sym.Column(), len(res.Observations), from)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // per-symbol errors are recorded in results, never returned
	return results
}

// fetchOne runs a single fetch under its own timeout. A fetcher that ignores
// its context is abandoned once the deadline passes.
func (c *Collector) fetchOne(ctx context.Context, ticker string, from model.Date) (obs []model.Observation, err error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	type outcome struct {
		obs []model.Observation
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("fetcher panic: %v", r)}
			}
		}()
		o, e := c.Fetcher.FetchCloses(ctx, ticker, from)
		done <- outcome{obs: o, err: e}
	}()

	select {
	case out := <-done:
		return out.obs, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// normalize drops observations before from and collapses repeated dates, the
// last one reported winning, then sorts by date.
func normalize(obs []model.Observation, from model.Date) []model.Observation {
	byDate := make(map[model.Date]int, len(obs))
	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Date.IsZero() || o.Date.Before(from) || o.Close.IsNegative() {
			continue
		}
		if i, ok := byDate[o.Date]; ok {
			out[i] = o
			continue
		}
		byDate[o.Date] = len(out)
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b model.Observation) int { return a.Date.Compare(b.Date) })
	return out
}

// MockFetcher returns fixed observations per ticker for development and testing.
// Tickers listed in Errors fail with the given error; tickers in Delay block
// until the delay elapses or the context is done.
type MockFetcher struct {
	Data   map[string][]model.Observation
	Errors map[string]error
	Delay  map[string]time.Duration
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCloses(ctx context.Context, ticker string, from model.Date) ([]model.Observation, error) {
	if d, ok := m.Delay[ticker]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	var out []model.Observation
	for _, o := range m.Data[ticker] {
		if !o.Date.Before(from) {
			out = append(out, o)
		}
	}
	return out, nil
}
