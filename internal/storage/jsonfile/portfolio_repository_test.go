package jsonfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

func TestPortfolioRepository_CreateAndGet(t *testing.T) {
	repo := NewPortfolioRepository(newTestStore(t))

	portfolio := models.NewPortfolio(1)
	_, err := portfolio.AddCurrency("USD", 100)
	require.NoError(t, err)
	require.NoError(t, repo.Create(portfolio))

	got, err := repo.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UserID)
	require.True(t, got.HasWallet("USD"))

	// код валюты хранится только ключом, после загрузки он восстановлен
	wallet, err := got.GetWallet("USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", wallet.CurrencyCode)
	assert.InDelta(t, 100, wallet.Balance, 1e-9)
}

func TestPortfolioRepository_CreateIdempotent(t *testing.T) {
	repo := NewPortfolioRepository(newTestStore(t))

	first := models.NewPortfolio(1)
	_, err := first.AddCurrency("USD", 100)
	require.NoError(t, err)
	require.NoError(t, repo.Create(first))

	second := models.NewPortfolio(1)
	require.NoError(t, repo.Create(second))

	got, err := repo.GetByUserID(1)
	require.NoError(t, err)
	assert.True(t, got.HasWallet("USD"))
}

func TestPortfolioRepository_SaveReplacesAndAppends(t *testing.T) {
	repo := NewPortfolioRepository(newTestStore(t))

	portfolio := models.NewPortfolio(1)
	_, err := portfolio.AddCurrency("USD", 100)
	require.NoError(t, err)
	require.NoError(t, repo.Create(portfolio))

	wallet, err := portfolio.GetOrCreateWallet("BTC")
	require.NoError(t, err)
	require.NoError(t, wallet.Deposit(0.5))
	require.NoError(t, repo.Save(portfolio))

	other := models.NewPortfolio(2)
	_, err = other.AddCurrency("USD", 100)
	require.NoError(t, err)
	require.NoError(t, repo.Save(other))

	got, err := repo.GetByUserID(1)
	require.NoError(t, err)
	btc, err := got.GetWallet("BTC")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, btc.Balance, 1e-9)

	_, err = repo.GetByUserID(2)
	assert.NoError(t, err)
}

func TestPortfolioRepository_GetNotFound(t *testing.T) {
	repo := NewPortfolioRepository(newTestStore(t))

	_, err := repo.GetByUserID(7)
	assert.ErrorIs(t, err, custom_err.ErrUserNotFound)
}
