package finnhub_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider/finnhub"
)

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(buffer),
	}
}

func TestFetchQuote(t *testing.T) {
	t.Parallel()

	// Arrange: a mock HTTP client returning a normal quote payload.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "test-token", req.URL.Query().Get("token"))
			return jsonResponse(t, http.StatusOK, map[string]any{
				"c": 150.5, "d": 1.5, "dp": 1.0,
				"h": 151.0, "l": 148.0, "o": 149.0, "pc": 149.0,
				"t": 1700000000,
			}), nil
		}).
		Times(1)

	a := finnhub.New("test-token", finnhub.WithHTTPClient(httpClient))

	// Act
	q, err := a.FetchQuote(t.Context(), "AAPL")

	// Assert
	require.NoError(t, err)
	require.Equal(t, 150.5, q.Price)
	require.Equal(t, 149.0, q.PreviousClose)
	require.Equal(t, int64(1700000000000), q.Timestamp)
}

func TestFetchQuote_ZeroQuoteIsNoData(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusOK, map[string]any{"c": 0, "t": 0}), nil).
		Times(1)

	a := finnhub.New("x", finnhub.WithHTTPClient(httpClient))
	_, err := a.FetchQuote(t.Context(), "NOPE")

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindNoData, perr.Kind)
}

func TestFetchCandles(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "D", req.URL.Query().Get("resolution"))
			return jsonResponse(t, http.StatusOK, map[string]any{
				"s": "ok",
				// Unsorted with one duplicate timestamp on purpose.
				"t": []int64{1700086400, 1700000000, 1700086400},
				"o": []float64{101, 100, 101},
				"h": []float64{102, 101, 102},
				"l": []float64{99, 98, 99},
				"c": []float64{101.5, 100.5, 101.5},
				"v": []float64{2000, 1000, 2000},
			}), nil
		}).
		Times(1)

	a := finnhub.New("x", finnhub.WithHTTPClient(httpClient))
	candles, err := a.FetchCandles(t.Context(), "AAPL", model.Timeframe1D,
		time.Unix(1699900000, 0), time.Unix(1700100000, 0))

	require.NoError(t, err)
	require.Len(t, candles, 2)
	// Strictly ascending, no duplicates.
	require.Equal(t, int64(1700000000000), candles[0].Time)
	require.Equal(t, int64(1700086400000), candles[1].Time)
	require.Equal(t, 100.5, candles[0].Close)
	require.Equal(t, int64(1000), candles[0].Volume)
}

func TestFetchCandles_NoDataSentinel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusOK, map[string]any{"s": "no_data"}), nil).
		Times(1)

	a := finnhub.New("x", finnhub.WithHTTPClient(httpClient))
	_, err := a.FetchCandles(t.Context(), "AAPL", model.Timeframe1H, time.Unix(0, 0), time.Unix(1, 0))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindNoData, perr.Kind)
}

func TestFetchCandles_HTTPStatusError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(bytes.NewBufferString("limit exceeded")),
		}, nil).
		Times(1)

	a := finnhub.New("x", finnhub.WithHTTPClient(httpClient))
	_, err := a.FetchCandles(t.Context(), "AAPL", model.Timeframe1D, time.Unix(0, 0), time.Unix(1, 0))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindStatus, perr.Kind)
	require.Contains(t, err.Error(), "429")
}

func TestFetchCandles_NetworkError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("connection refused")).
		Times(1)

	a := finnhub.New("x", finnhub.WithHTTPClient(httpClient))
	_, err := a.FetchCandles(t.Context(), "AAPL", model.Timeframe1D, time.Unix(0, 0), time.Unix(1, 0))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provider.KindNetwork, perr.Kind)
}
