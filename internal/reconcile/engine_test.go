package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"IndexVault/internal/collector"
	"IndexVault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(f collector.Fetcher, symbols ...string) *Engine {
	e := &Engine{
		Collector:   collector.NewCollector(f, time.Second, 2),
		Granularity: model.Calendar,
		EpochStart:  model.NewDate(2023, time.December, 1),
	}
	for _, s := range symbols {
		e.Symbols = append(e.Symbols, model.Symbol{Ticker: s})
	}
	return e
}

func TestSyncExampleScenario(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Observation{
		"X": {ob(3, "102.5"), ob(4, "103")},
	}}
	cache := series([]string{"X"}, row(1, "X", "100"), row(2, "X", "101"), row(3, "X", "102"))

	res := newEngine(f, "X").Sync(context.Background(), cache)

	assert.Equal(t, day(3), res.From)
	require.Equal(t, []model.Date{day(1), day(2), day(3), day(4)}, res.Master.Dates())
	assert.Equal(t, "102.5", price(res.Master, 2, "X"))
	assert.Equal(t, "103", price(res.Master, 3, "X"))
	assert.Equal(t, res.Master.Dates(), res.Continuous.Dates())
	assert.Equal(t, day(3), res.WatermarkBefore)
	assert.Equal(t, day(4), res.WatermarkAfter)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, 2, res.Symbols[0].Fetched)
	assert.Equal(t, 1, res.Symbols[0].New)
	assert.Empty(t, res.NoNewData())
}

func TestSyncIsIdempotent(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Observation{
		"X": {ob(2, "10"), ob(3, "11"), ob(5, "12")},
		"Y": {ob(3, "20"), ob(4, "21")},
	}}
	e := newEngine(f, "X", "Y")

	first := e.Sync(context.Background(), nil)
	second := e.Sync(context.Background(), first.Master)

	assert.Equal(t, first.Master, second.Master)
	assert.Equal(t, first.Continuous, second.Continuous)
	assert.Equal(t, first.Returns, second.Returns)
	assert.ElementsMatch(t, []string{"X", "Y"}, second.NoNewData())
}

func TestSyncWatermarkNeverRegresses(t *testing.T) {
	f := &collector.MockFetcher{
		Data:   map[string][]model.Observation{"X": {ob(10, "1")}},
		Errors: map[string]error{"Y": errors.New("503")},
	}
	cache := series([]string{"X", "Y"}, row(10, "X", "1", "Y", "2"), row(12, "Y", "3"))

	res := newEngine(f, "X", "Y").Sync(context.Background(), cache)

	assert.False(t, res.WatermarkAfter.Before(res.WatermarkBefore))
	assert.Equal(t, day(12), res.WatermarkAfter)
	// nothing fetched after the watermark, the cache survives intact
	assert.Equal(t, cache.Dates(), res.Master.Dates())
	assert.Equal(t, "2", price(res.Master, 0, "Y"))
	require.Len(t, res.Warnings(), 1)
	assert.ErrorIs(t, res.Warnings()[0], model.ErrFetchUnavailable)
	assert.Equal(t, []string{"X", "Y"}, res.NoNewData())
}

func TestSyncFullHistoryWithoutCache(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Observation{
		"X": {{Date: model.NewDate(2023, time.November, 30), Close: dec("1")}, ob(1, "2")},
		"Y": {ob(2, "3")},
	}}
	res := newEngine(f, "X", "Y").Sync(context.Background(), nil)

	assert.Equal(t, model.NewDate(2023, time.December, 1), res.From)
	assert.True(t, res.WatermarkBefore.IsZero())
	require.Equal(t, []model.Date{day(1), day(2)}, res.Master.Dates(), "observations before the epoch are dropped")
	assert.Equal(t, "absent", price(res.Continuous, 0, "Y"))
	assert.Equal(t, 0.0, res.Returns.Pct[1]["Y"])
}

func TestSyncEmptyEverything(t *testing.T) {
	f := &collector.MockFetcher{Errors: map[string]error{"Y": errors.New("timeout")}}
	res := newEngine(f, "X", "Y").Sync(context.Background(), nil)

	assert.Equal(t, 0, res.Master.Len())
	assert.Equal(t, 0, res.Continuous.Len())
	assert.True(t, res.WatermarkAfter.IsZero())
	assert.Equal(t, []string{"X", "Y"}, res.Master.Columns)
	assert.Equal(t, []string{"X", "Y"}, res.NoNewData())
}

func TestSyncBackfillsSymbolMissingFromCache(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Observation{
		"X": {ob(3, "102"), ob(4, "103")},
		"Y": {ob(1, "50"), ob(2, "51"), ob(4, "52")},
	}}
	cache := series([]string{"X"}, row(1, "X", "100"), row(2, "X", "101"), row(3, "X", "102"))

	res := newEngine(f, "X", "Y").Sync(context.Background(), cache)

	assert.Equal(t, day(3), res.From)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, day(3), res.Symbols[0].From)
	assert.Equal(t, model.NewDate(2023, time.December, 1), res.Symbols[1].From)
	assert.Equal(t, 1, res.Symbols[0].New)
	assert.Equal(t, 3, res.Symbols[1].New)

	assert.Equal(t, []string{"X", "Y"}, res.Master.Columns)
	require.Equal(t, []model.Date{day(1), day(2), day(3), day(4)}, res.Master.Dates())
	assert.Equal(t, "50", price(res.Master, 0, "Y"))
	assert.Equal(t, "100", price(res.Master, 0, "X"))
	assert.Equal(t, "51", price(res.Continuous, 2, "Y"), "carried into 01-03")
}
