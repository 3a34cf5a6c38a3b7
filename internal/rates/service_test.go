package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

var testMoment = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, snapshot *models.RatesSnapshot) *Service {
	t.Helper()

	storage := newTestRatesStorage(t)
	if snapshot != nil {
		require.NoError(t, storage.Save(snapshot))
	}

	svc := NewService(storage, 5*time.Minute, discardLogger())
	svc.now = func() time.Time { return testMoment }
	return svc
}

func snapshotWith(pairs map[string]models.CurrencyPairRate) *models.RatesSnapshot {
	refresh := testMoment
	return &models.RatesSnapshot{Pairs: pairs, LastRefresh: &refresh}
}

func TestService_GetRate_Identity(t *testing.T) {
	svc := newTestService(t, nil)

	rate, err := svc.GetRate("USD", "USD")

	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestService_GetRate_Direct(t *testing.T) {
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 59337.21, UpdatedAt: testMoment, Source: "CoinGecko"},
	}))

	rate, err := svc.GetRate("BTC", "USD")

	require.NoError(t, err)
	assert.Equal(t, 59337.21, rate)
}

func TestService_GetRate_ReverseDerived(t *testing.T) {
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 50000, UpdatedAt: testMoment, Source: "CoinGecko"},
	}))

	rate, err := svc.GetRate("USD", "BTC")

	require.NoError(t, err)
	assert.InDelta(t, 1.0/50000, rate, 1e-12)
}

func TestService_GetRate_Unavailable(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.GetRate("BTC", "USD")

	assert.ErrorIs(t, err, custom_err.ErrRateUnavailable)
}

func TestService_GetRate_Stale(t *testing.T) {
	stale := testMoment.Add(-6 * time.Minute)
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 59337.21, UpdatedAt: stale, Source: "CoinGecko"},
	}))

	_, err := svc.GetRate("BTC", "USD")

	assert.ErrorIs(t, err, custom_err.ErrStaleRate)
}

func TestService_GetRate_FreshnessPerEntry(t *testing.T) {
	// EUR устарел, но BTC свежий и отдается без ошибки
	stale := testMoment.Add(-time.Hour)
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 59337.21, UpdatedAt: testMoment, Source: "CoinGecko"},
		"EUR_USD": {Rate: 1.09, UpdatedAt: stale, Source: "ExchangeRate-API"},
	}))

	rate, err := svc.GetRate("BTC", "USD")
	require.NoError(t, err)
	assert.Equal(t, 59337.21, rate)

	_, err = svc.GetRate("EUR", "USD")
	assert.ErrorIs(t, err, custom_err.ErrStaleRate)
}

func TestService_GetRatePair_DirectOnly(t *testing.T) {
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 50000, UpdatedAt: testMoment, Source: "CoinGecko"},
	}))

	pair, err := svc.GetRatePair("BTC", "USD")

	require.NoError(t, err)
	assert.Equal(t, 50000.0, pair.Rate)
	assert.InDelta(t, 1.0/50000, pair.ReverseRate, 1e-12)
	assert.Equal(t, testMoment, pair.UpdatedAt)
}

func TestService_GetRatePair_FreshnessByFoundEntry(t *testing.T) {
	// прямая запись свежая, обратная протухла: проверка идет по прямой
	stale := testMoment.Add(-time.Hour)
	svc := newTestService(t, snapshotWith(map[string]models.CurrencyPairRate{
		"BTC_USD": {Rate: 50000, UpdatedAt: testMoment, Source: "CoinGecko"},
		"USD_BTC": {Rate: 0.00002, UpdatedAt: stale, Source: "CoinGecko"},
	}))

	pair, err := svc.GetRatePair("BTC", "USD")

	require.NoError(t, err)
	assert.Equal(t, 50000.0, pair.Rate)
	assert.Equal(t, 0.00002, pair.ReverseRate)
}

func TestService_GetRatePair_Unavailable(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.GetRatePair("ETH", "USD")

	assert.ErrorIs(t, err, custom_err.ErrRateUnavailable)
}
