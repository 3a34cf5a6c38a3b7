package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/rates"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

type walletFixture struct {
	wallet        *WalletService
	auth          *AuthService
	portfolioRepo jsonfile.PortfolioRepository
	ratesStorage  jsonfile.RatesStorage
	userID        int
}

// newWalletFixture поднимает весь стек на временной директории и входит
// пользователем alice со стартовым балансом 100 USD.
func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()

	store, err := jsonfile.NewStore(t.TempDir())
	require.NoError(t, err)

	userRepo := jsonfile.NewUserRepository(store)
	portfolioRepo := jsonfile.NewPortfolioRepository(store)
	sessionStore := jsonfile.NewSessionStore(store)
	ratesStorage := jsonfile.NewRatesStorage(store)

	auth := NewAuthService(
		userRepo, portfolioRepo, sessionStore,
		"test-secret", 24*time.Hour,
		"USD", 100,
		discardLogger(),
	)

	ratesService := rates.NewService(ratesStorage, time.Hour, discardLogger())
	wallet := NewWalletService(portfolioRepo, ratesService, auth, "USD", discardLogger())

	result, err := auth.Register("alice", "secret")
	require.NoError(t, err)
	_, err = auth.Login("alice", "secret")
	require.NoError(t, err)

	return &walletFixture{
		wallet:        wallet,
		auth:          auth,
		portfolioRepo: portfolioRepo,
		ratesStorage:  ratesStorage,
		userID:        result.UserID,
	}
}

func (f *walletFixture) saveRates(t *testing.T, pairs map[string]float64) {
	t.Helper()

	now := time.Now().UTC()
	snapshot := models.NewRatesSnapshot()
	for pair, rate := range pairs {
		snapshot.Pairs[pair] = models.CurrencyPairRate{Rate: rate, UpdatedAt: now, Source: "CoinGecko"}
	}
	snapshot.LastRefresh = &now
	require.NoError(t, f.ratesStorage.Save(snapshot))
}

func TestWalletService_BuyInsufficientFunds(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	// 10 BTC стоят 500000 USD при балансе 100
	_, err := f.wallet.Buy("BTC", 10)

	var insufficientErr *custom_err.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "USD", insufficientErr.Code)
	assert.InDelta(t, 100, insufficientErr.Available, 1e-9)
	assert.InDelta(t, 500000, insufficientErr.Required, 1e-9)

	// портфель не изменился: ни кошелька BTC, ни списания с USD
	portfolio, err := f.portfolioRepo.GetByUserID(f.userID)
	require.NoError(t, err)
	assert.False(t, portfolio.HasWallet("BTC"))
	usd, err := portfolio.GetWallet("USD")
	require.NoError(t, err)
	assert.InDelta(t, 100, usd.Balance, 1e-9)
}

func TestWalletService_BuyDebitsBaseWallet(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	result, err := f.wallet.Buy("BTC", 0.001)

	require.NoError(t, err)
	assert.Equal(t, "BTC", result.Currency)
	assert.InDelta(t, 50, result.Cost, 1e-9)
	assert.InDelta(t, 0, result.Before, 1e-9)
	assert.InDelta(t, 0.001, result.After, 1e-9)
	assert.InDelta(t, 100, result.BaseBefore, 1e-9)
	assert.InDelta(t, 50, result.BaseAfter, 1e-9)

	portfolio, err := f.portfolioRepo.GetByUserID(f.userID)
	require.NoError(t, err)
	btc, err := portfolio.GetWallet("BTC")
	require.NoError(t, err)
	assert.InDelta(t, 0.001, btc.Balance, 1e-9)
}

func TestWalletService_BuyUnavailableRateLeavesPortfolio(t *testing.T) {
	f := newWalletFixture(t)
	// курсов нет вовсе

	_, err := f.wallet.Buy("BTC", 0.001)

	assert.ErrorIs(t, err, custom_err.ErrRateUnavailable)

	portfolio, err := f.portfolioRepo.GetByUserID(f.userID)
	require.NoError(t, err)
	assert.False(t, portfolio.HasWallet("BTC"))
}

func TestWalletService_BuyValidation(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	_, err := f.wallet.Buy("BTC", -1)
	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)

	_, err = f.wallet.Buy("XYZ", 1)
	assert.ErrorIs(t, err, custom_err.ErrInvalidCurrency)

	// базовая валюта покупается только через deposit
	_, err = f.wallet.Buy("USD", 1)
	assert.ErrorIs(t, err, custom_err.ErrInvalidCurrency)
}

func TestWalletService_SellAndProceeds(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	_, err := f.wallet.Buy("BTC", 0.001)
	require.NoError(t, err)

	result, err := f.wallet.Sell("BTC", 0.0005)

	require.NoError(t, err)
	assert.InDelta(t, 25, result.Cost, 1e-9)
	assert.InDelta(t, 0.0005, result.After, 1e-9)
	assert.InDelta(t, 75, result.BaseAfter, 1e-9)
}

func TestWalletService_SellWithoutWallet(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"ETH_USD": 3000})

	_, err := f.wallet.Sell("ETH", 1)

	assert.ErrorIs(t, err, custom_err.ErrWalletNotFound)
}

func TestWalletService_SellInsufficient(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	_, err := f.wallet.Buy("BTC", 0.001)
	require.NoError(t, err)

	_, err = f.wallet.Sell("BTC", 1)

	var insufficientErr *custom_err.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "BTC", insufficientErr.Code)
}

func TestWalletService_Deposit(t *testing.T) {
	f := newWalletFixture(t)

	result, err := f.wallet.Deposit(50)

	require.NoError(t, err)
	assert.Equal(t, "USD", result.Currency)
	assert.InDelta(t, 100, result.Before, 1e-9)
	assert.InDelta(t, 150, result.After, 1e-9)
}

func TestWalletService_DepositInvalidAmount(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.wallet.Deposit(0)

	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)
}

func TestWalletService_ShowPortfolio(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	_, err := f.wallet.Buy("BTC", 0.0005)
	require.NoError(t, err)

	view, err := f.wallet.ShowPortfolio("USD")

	require.NoError(t, err)
	assert.Equal(t, "USD", view.Base)
	require.Len(t, view.Items, 2)

	// коды идут в отсортированном порядке
	assert.Equal(t, "BTC", view.Items[0].Currency)
	assert.InDelta(t, 25, view.Items[0].Converted, 1e-9)
	assert.Equal(t, "USD", view.Items[1].Currency)
	assert.InDelta(t, 75, view.Items[1].Converted, 1e-9)
	assert.InDelta(t, 100, view.Total, 1e-9)
}

func TestWalletService_ShowPortfolioUnknownBase(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.wallet.ShowPortfolio("XYZ")

	assert.ErrorIs(t, err, custom_err.ErrInvalidCurrency)
}

func TestWalletService_GetRate(t *testing.T) {
	f := newWalletFixture(t)
	f.saveRates(t, map[string]float64{"BTC_USD": 50000})

	pair, err := f.wallet.GetRate("BTC", "USD")

	require.NoError(t, err)
	assert.InDelta(t, 50000, pair.Rate, 1e-9)
	assert.InDelta(t, 1.0/50000, pair.ReverseRate, 1e-12)

	_, err = f.wallet.GetRate("BTC", "XYZ")
	assert.ErrorIs(t, err, custom_err.ErrInvalidCurrency)
}

func TestWalletService_RequiresLogin(t *testing.T) {
	f := newWalletFixture(t)
	require.NoError(t, f.auth.Logout())

	_, err := f.wallet.Buy("BTC", 1)
	assert.ErrorIs(t, err, custom_err.ErrNotAuthenticated)

	_, err = f.wallet.Deposit(10)
	assert.ErrorIs(t, err, custom_err.ErrNotAuthenticated)

	_, err = f.wallet.ShowPortfolio("USD")
	assert.ErrorIs(t, err, custom_err.ErrNotAuthenticated)
}
