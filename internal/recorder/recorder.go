package recorder

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// SymbolRecord captures one symbol's contribution to a run.
type SymbolRecord struct {
	Ticker  string
	Column  string
	Fetched int
	New     int
	Error   string
}

// RunRecord holds everything journaled about one synchronization run.
type RunRecord struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	CacheFound      bool
	CacheNote       string // why the cache was not used, if it was not
	From            string
	WatermarkBefore string // empty when there was no cache
	WatermarkAfter  string
	MasterRows      int
	ContinuousRows  int
	Symbols         []SymbolRecord
	Error           string // fatal error, if the run aborted
}

// NewRunID returns a lexically sortable run identifier.
func NewRunID() string { return ulid.Make().String() }

// Recorder persists the history of synchronization runs.
type Recorder interface {
	RecordRun(run *RunRecord) error
	LastRun() (*RunRecord, error)
	Close() error
}
