package collector

import (
	"context"

	"IndexVault/internal/model"
)

// Fetcher defines the interface for fetching daily closing prices.
// FetchCloses returns observations on or after from, in date order.
// An empty result with a nil error means no new observations.
type Fetcher interface {
	FetchCloses(ctx context.Context, ticker string, from model.Date) ([]model.Observation, error)
	Name() string
}
