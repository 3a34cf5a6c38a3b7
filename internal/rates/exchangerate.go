package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/config"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const exchangeRateSource = "ExchangeRate-API"

// ExchangeRateClient забирает фиатные курсы из ExchangeRate-API.
// Формат ответа: {"result": "success", "conversion_rates": {"EUR": 0.92, ...}}.
// Доступ по API ключу из переменной окружения или файла ключа.
type ExchangeRateClient struct {
	baseURL      string
	apiKey       string
	baseCurrency string
	fiat         []string
	httpClient   *http.Client
}

func NewExchangeRateClient(cfg *config.Config, httpClient *http.Client) *ExchangeRateClient {
	return &ExchangeRateClient{
		baseURL:      cfg.API.ExchangeRateURL,
		apiKey:       cfg.API.ExchangeRateKey,
		baseCurrency: cfg.BaseCurrency,
		fiat:         models.FiatCurrencies(),
		httpClient:   httpClient,
	}
}

func (c *ExchangeRateClient) Name() string { return exchangeRateSource }

type exchangeRateResponse struct {
	Result          string                 `json:"result"`
	ErrorType       string                 `json:"error-type"`
	ConversionRates map[string]json.Number `json:"conversion_rates"`
}

func (c *ExchangeRateClient) FetchRates(ctx context.Context) (map[string]PairRate, error) {
	if c.apiKey == "" {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "не удалось получить API ключ", nil)
	}

	reqURL := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, c.baseCurrency)

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "не удалось сформировать запрос", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "сетевая ошибка", err)
	}
	defer resp.Body.Close()

	elapsedMs := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource,
			fmt.Sprintf("неожиданный статус ответа: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "не удалось прочитать ответ", err)
	}

	var data exchangeRateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "неправильный JSON в ответе", err)
	}

	if data.Result != "success" {
		errorType := data.ErrorType
		if errorType == "" {
			errorType = "unknown"
		}
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, errorType, nil)
	}

	if data.ConversionRates == nil {
		return nil, custom_err.NewAPIRequestError(exchangeRateSource, "ответ не содержит блока курсов", nil)
	}

	result := make(map[string]PairRate, len(c.fiat))

	for _, currency := range c.fiat {
		if currency == c.baseCurrency {
			continue
		}

		raw, ok := data.ConversionRates[currency]
		if !ok {
			return nil, custom_err.NewAPIRequestError(exchangeRateSource,
				fmt.Sprintf("курс %q не найден в ответе", currency), nil)
		}

		// conversion_rates дает base->currency, для пары CUR_BASE нужен обратный
		perBase, err := raw.Float64()
		if err != nil || perBase <= 0 {
			return nil, custom_err.NewAPIRequestError(exchangeRateSource,
				fmt.Sprintf("неправильное значение курса для %s: %q", currency, raw.String()), nil)
		}

		pair := models.PairKey(currency, c.baseCurrency)
		result[pair] = PairRate{
			Rate: 1 / perBase,
			Meta: map[string]any{
				"request_ms":  elapsedMs,
				"status_code": resp.StatusCode,
				"etag":        resp.Header.Get("ETag"),
			},
		}
	}

	return result, nil
}
