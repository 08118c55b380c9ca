package model

import "errors"

var (
	// ErrFetchUnavailable marks a symbol whose fetch failed. The run continues
	// without new observations for that symbol.
	ErrFetchUnavailable = errors.New("fetch unavailable")

	// ErrCacheUnreadable marks a cached master sheet that exists but cannot be
	// read as a series. It degrades to a full-history resync.
	ErrCacheUnreadable = errors.New("cache unreadable")

	// ErrStoreWriteFailed marks a failure to persist the workbook. It is fatal.
	ErrStoreWriteFailed = errors.New("store write failed")
)
