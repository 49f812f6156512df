package custom

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BuzzScud/ALGO3D-sub004/internal/httpx"
	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
)

func TestFetchQuote_FieldMapping(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{
			"data": {"lastPrice": "150.25", "dayHigh": 151.0, "dayLow": 148.5},
			"chg": -0.75,
			"vol": 1234567
		}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{
		Name:    "myfeed",
		BaseURL: srv.URL,
		Fields: FieldMap{
			Price:  "data.lastPrice",
			Change: "chg",
			Volume: "vol",
			High:   "data.dayHigh",
			Low:    "data.dayLow",
		},
		AuthType:  "header",
		AuthKey:   "X-Api-Key",
		AuthValue: "secret",
	}, httpx.New(5*time.Second))

	q, err := a.FetchQuote(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 150.25, q.Price) // string number accepted
	require.Equal(t, -0.75, q.Change)
	require.Equal(t, int64(1234567), q.Volume)
	require.Equal(t, 151.0, q.High)
	require.Equal(t, 148.5, q.Low)
}

func TestFetchQuote_SymbolPlaceholderAndQueryAuth(t *testing.T) {
	t.Parallel()

	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(`{"price": 42.0}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{
		BaseURL:   srv.URL + "/quotes/{symbol}",
		AuthType:  "query",
		AuthKey:   "apikey",
		AuthValue: "k123",
	}, httpx.New(5*time.Second))

	q, err := a.FetchQuote(t.Context(), "MSFT")
	require.NoError(t, err)
	require.Equal(t, 42.0, q.Price)
	require.Contains(t, gotURL, "/quotes/MSFT")
	require.Contains(t, gotURL, "apikey=k123")
	require.NotContains(t, gotURL, "symbol=MSFT")
}

func TestFetchQuote_MissingPriceField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"something": 1}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{BaseURL: srv.URL, Fields: FieldMap{Price: "last"}}, httpx.New(5*time.Second))
	_, err := a.FetchQuote(t.Context(), "AAPL")

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindDecode, perr.Kind)
}

func TestFetchCandles_ReportsNoData(t *testing.T) {
	t.Parallel()

	a := New(Config{Name: "myfeed", BaseURL: "http://localhost"}, httpx.New(time.Second))
	_, err := a.FetchCandles(t.Context(), "AAPL", model.Timeframe1D, time.Unix(0, 0), time.Unix(1, 0))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindNoData, perr.Kind)
	require.Equal(t, "myfeed", perr.Provider)
}
