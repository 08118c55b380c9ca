package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"gmtoffset":-18000},
"timestamp":[1704292200,1704378600,1704465000],
"indicators":{"quote":[{"close":[4704.81,4688.68,null]}]}}],"error":null}}`

func TestYahooFetcherFetchCloses(t *testing.T) {
	var gotPath, gotPeriod1 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPeriod1 = r.URL.Query().Get("period1")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	f.Now = func() time.Time { return time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC) }

	from := model.NewDate(2024, time.January, 3)
	obs, err := f.FetchCloses(context.Background(), "^GSPC", from)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Equal(t, "1704240000", gotPeriod1)
	require.Len(t, obs, 2, "null close must be skipped")
	assert.Equal(t, from, obs[0].Date)
	assert.True(t, decimal.RequireFromString("4704.81").Equal(obs[0].Close))
	assert.Equal(t, model.NewDate(2024, time.January, 4), obs[1].Date)
}

func TestYahooFetcherErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusTooManyRequests, "slow down"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"bad json", http.StatusOK, `{"chart":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("", time.Second)
			f.BaseURL = srv.URL
			_, err := f.FetchCloses(context.Background(), "^DJI", model.NewDate(2024, 1, 1))
			assert.Error(t, err)
		})
	}
}

func TestYahooFetcherEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"gmtoffset":0},"indicators":{"quote":[{}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	obs, err := f.FetchCloses(context.Background(), "^FTSE", model.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestRESTFetcher(t *testing.T) {
	var auth, from string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		from = r.URL.Query().Get("from")
		w.Write([]byte(`[{"date":"2024-01-03","close":102.5},{"date":"2024-01-04","close":"103"},{"date":"2024-01-05","close":null}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", time.Second)
	obs, err := f.FetchCloses(context.Background(), "X", model.NewDate(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "2024-01-03", from)
	require.Len(t, obs, 2)
	assert.True(t, decimal.RequireFromString("103").Equal(obs[1].Close))
}
