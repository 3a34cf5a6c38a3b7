package models

import (
	"fmt"
	"sort"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
)

// CurrencyKind разделяет фиатные и криптовалюты в реестре.
type CurrencyKind string

const (
	KindFiat   CurrencyKind = "fiat"
	KindCrypto CurrencyKind = "crypto"
)

// Currency описывает метаданные валюты. Реестр статичен и в рантайме
// не изменяется.
type Currency struct {
	Code           string
	Name           string
	Kind           CurrencyKind
	IssuingCountry string  // только для фиатных
	Algorithm      string  // только для крипты
	MarketCap      float64 // только для крипты
	CoinGeckoID    string  // идентификатор монеты в CoinGecko, пустой для фиата
}

// DisplayInfo возвращает строку для отображения валюты пользователю.
func (c Currency) DisplayInfo() string {
	if c.Kind == KindCrypto {
		return fmt.Sprintf("[CRYPTO] %s - %s (Algo: %s, MCAP: %.2e)",
			c.Code, c.Name, c.Algorithm, c.MarketCap)
	}
	return fmt.Sprintf("[FIAT] %s - %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
}

var currencyRegistry = map[string]Currency{
	"USD": {Code: "USD", Name: "US Dollar", Kind: KindFiat, IssuingCountry: "United States"},
	"EUR": {Code: "EUR", Name: "Euro", Kind: KindFiat, IssuingCountry: "Eurozone"},
	"RUB": {Code: "RUB", Name: "Ruble", Kind: KindFiat, IssuingCountry: "Russia"},
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Kind: KindFiat, IssuingCountry: "China"},
	"BTC": {Code: "BTC", Name: "Bitcoin", Kind: KindCrypto, Algorithm: "SHA-256", MarketCap: 1.12e12, CoinGeckoID: "bitcoin"},
	"ETH": {Code: "ETH", Name: "Ethereum", Kind: KindCrypto, Algorithm: "Ethash", MarketCap: 3.7e11, CoinGeckoID: "ethereum"},
	"SOL": {Code: "SOL", Name: "Solana", Kind: KindCrypto, Algorithm: "Proof of History", MarketCap: 1.2e10, CoinGeckoID: "solana"},
}

// GetCurrency возвращает валюту по коду.
func GetCurrency(code string) (Currency, error) {
	c, ok := currencyRegistry[code]
	if !ok {
		return Currency{}, &custom_err.CurrencyNotFoundError{Code: code}
	}
	return c, nil
}

// IsKnownCurrency проверяет, что код есть в реестре.
func IsKnownCurrency(code string) bool {
	_, ok := currencyRegistry[code]
	return ok
}

// FiatCurrencies возвращает отсортированный список кодов фиатных валют.
func FiatCurrencies() []string {
	return codesByKind(KindFiat)
}

// CryptoCurrencies возвращает отсортированный список кодов криптовалют.
func CryptoCurrencies() []string {
	return codesByKind(KindCrypto)
}

// CoinGeckoIDs возвращает соответствие код -> идентификатор CoinGecko.
func CoinGeckoIDs() map[string]string {
	ids := make(map[string]string)
	for code, c := range currencyRegistry {
		if c.Kind == KindCrypto && c.CoinGeckoID != "" {
			ids[code] = c.CoinGeckoID
		}
	}
	return ids
}

func codesByKind(kind CurrencyKind) []string {
	var codes []string
	for code, c := range currencyRegistry {
		if c.Kind == kind {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
