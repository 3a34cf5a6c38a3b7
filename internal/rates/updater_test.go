package rates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRatesStorage(t *testing.T) jsonfile.RatesStorage {
	t.Helper()
	store, err := jsonfile.NewStore(t.TempDir())
	require.NoError(t, err)
	return jsonfile.NewRatesStorage(store)
}

func TestUpdater_MergesAllSources(t *testing.T) {
	storage := newTestRatesStorage(t)

	crypto := NewMockRateSource("CoinGecko")
	crypto.On("FetchRates", mock.Anything).Return(map[string]PairRate{
		"BTC_USD": {Rate: 59337.21},
	}, nil)

	fiat := NewMockRateSource("ExchangeRate-API")
	fiat.On("FetchRates", mock.Anything).Return(map[string]PairRate{
		"EUR_USD": {Rate: 1.09},
	}, nil)

	updater := NewUpdater([]RateSource{crypto, fiat}, storage, discardLogger())

	require.NoError(t, updater.RunUpdate(context.Background(), "manual"))

	snapshot, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, snapshot.Pairs, 2)
	assert.Equal(t, "CoinGecko", snapshot.Pairs["BTC_USD"].Source)
	assert.Equal(t, "ExchangeRate-API", snapshot.Pairs["EUR_USD"].Source)
	require.NotNil(t, snapshot.LastRefresh)

	// все пары цикла получают одну отметку времени
	assert.Equal(t, *snapshot.LastRefresh, snapshot.Pairs["BTC_USD"].UpdatedAt)
	assert.Equal(t, *snapshot.LastRefresh, snapshot.Pairs["EUR_USD"].UpdatedAt)

	history, err := storage.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, rec := range history {
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "USD", rec.ToCurrency)
	}
}

func TestUpdater_OneSourceFails_OtherPersisted(t *testing.T) {
	storage := newTestRatesStorage(t)

	crypto := NewMockRateSource("CoinGecko")
	crypto.On("FetchRates", mock.Anything).
		Return(nil, custom_err.NewAPIRequestError("CoinGecko", "неожиданный статус ответа: 500", nil))

	fiat := NewMockRateSource("ExchangeRate-API")
	fiat.On("FetchRates", mock.Anything).Return(map[string]PairRate{
		"EUR_USD": {Rate: 1.09},
	}, nil)

	updater := NewUpdater([]RateSource{crypto, fiat}, storage, discardLogger())

	require.NoError(t, updater.RunUpdate(context.Background(), "scheduler"))

	snapshot, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, snapshot.Pairs, 1)
	assert.Contains(t, snapshot.Pairs, "EUR_USD")
	assert.NotNil(t, snapshot.LastRefresh)
}

func TestUpdater_AllSourcesFail_NoOp(t *testing.T) {
	storage := newTestRatesStorage(t)

	// снапшот с прошлого цикла не должен быть затронут
	old := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Save(&models.RatesSnapshot{
		Pairs: map[string]models.CurrencyPairRate{
			"BTC_USD": {Rate: 100, UpdatedAt: old, Source: "CoinGecko"},
		},
		LastRefresh: &old,
	}))

	crypto := NewMockRateSource("CoinGecko")
	crypto.On("FetchRates", mock.Anything).
		Return(nil, custom_err.NewAPIRequestError("CoinGecko", "сетевая ошибка", errors.New("timeout")))

	fiat := NewMockRateSource("ExchangeRate-API")
	fiat.On("FetchRates", mock.Anything).
		Return(nil, custom_err.NewAPIRequestError("ExchangeRate-API", "invalid-key", nil))

	updater := NewUpdater([]RateSource{crypto, fiat}, storage, discardLogger())

	require.NoError(t, updater.RunUpdate(context.Background(), "scheduler"))

	snapshot, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, old, *snapshot.LastRefresh)
	assert.Equal(t, 100.0, snapshot.Pairs["BTC_USD"].Rate)

	history, err := storage.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdater_IncrementalMerge_KeepsMissingPairs(t *testing.T) {
	storage := newTestRatesStorage(t)

	old := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Save(&models.RatesSnapshot{
		Pairs: map[string]models.CurrencyPairRate{
			"BTC_USD": {Rate: 100, UpdatedAt: old, Source: "CoinGecko"},
			"EUR_USD": {Rate: 1.05, UpdatedAt: old, Source: "ExchangeRate-API"},
		},
		LastRefresh: &old,
	}))

	fiat := NewMockRateSource("ExchangeRate-API")
	fiat.On("FetchRates", mock.Anything).Return(map[string]PairRate{
		"EUR_USD": {Rate: 1.09},
	}, nil)

	updater := NewUpdater([]RateSource{fiat}, storage, discardLogger())

	require.NoError(t, updater.RunUpdateFrom(context.Background(), "manual", []RateSource{fiat}))

	snapshot, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, snapshot.Pairs, 2)
	// не пришедшая в этом цикле пара остается со старой отметкой
	assert.Equal(t, 100.0, snapshot.Pairs["BTC_USD"].Rate)
	assert.Equal(t, old, snapshot.Pairs["BTC_USD"].UpdatedAt)
	assert.Equal(t, 1.09, snapshot.Pairs["EUR_USD"].Rate)
	assert.True(t, snapshot.LastRefresh.After(old))
}

func TestUpdater_NonAPIErrorIsFatal(t *testing.T) {
	storage := newTestRatesStorage(t)

	broken := NewMockRateSource("CoinGecko")
	broken.On("FetchRates", mock.Anything).Return(nil, errors.New("паника парсера"))

	updater := NewUpdater([]RateSource{broken}, storage, discardLogger())

	err := updater.RunUpdate(context.Background(), "scheduler")
	require.Error(t, err)

	var apiErr *custom_err.APIRequestError
	assert.False(t, errors.As(err, &apiErr))
}
