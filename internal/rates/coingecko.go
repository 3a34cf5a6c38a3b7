package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/config"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const coinGeckoSource = "CoinGecko"

// CoinGeckoClient забирает цены криптовалют из CoinGecko simple/price.
// Формат ответа: {"bitcoin": {"usd": 59337.21}, ...}.
type CoinGeckoClient struct {
	baseURL      string
	baseCurrency string
	idMap        map[string]string // код валюты -> идентификатор CoinGecko
	httpClient   *http.Client
}

func NewCoinGeckoClient(cfg *config.Config, httpClient *http.Client) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:      cfg.API.CoinGeckoURL,
		baseCurrency: cfg.BaseCurrency,
		idMap:        models.CoinGeckoIDs(),
		httpClient:   httpClient,
	}
}

func (c *CoinGeckoClient) Name() string { return coinGeckoSource }

func (c *CoinGeckoClient) FetchRates(ctx context.Context) (map[string]PairRate, error) {
	ids := make([]string, 0, len(c.idMap))
	for _, rawID := range c.idMap {
		ids = append(ids, rawID)
	}
	sort.Strings(ids)
	vsCurrency := strings.ToLower(c.baseCurrency)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", vsCurrency)
	reqURL := c.baseURL + "?" + params.Encode()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(coinGeckoSource, "не удалось сформировать запрос", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(coinGeckoSource, "сетевая ошибка", err)
	}
	defer resp.Body.Close()

	elapsedMs := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, custom_err.NewAPIRequestError(coinGeckoSource,
			fmt.Sprintf("неожиданный статус ответа: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, custom_err.NewAPIRequestError(coinGeckoSource, "не удалось прочитать ответ", err)
	}

	// курс приходит числом; json.Number ловит строковые и прочие неверные типы
	var data map[string]map[string]json.Number
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, custom_err.NewAPIRequestError(coinGeckoSource, "неправильный JSON в ответе", err)
	}

	result := make(map[string]PairRate, len(c.idMap))

	for code, rawID := range c.idMap {
		priceInfo, ok := data[rawID]
		if !ok {
			return nil, custom_err.NewAPIRequestError(coinGeckoSource,
				fmt.Sprintf("ответ не содержит данных: %q", rawID), nil)
		}

		raw, ok := priceInfo[vsCurrency]
		if !ok {
			return nil, custom_err.NewAPIRequestError(coinGeckoSource,
				fmt.Sprintf("ответ не содержит курс %q для %q", vsCurrency, rawID), nil)
		}

		rate, err := raw.Float64()
		if err != nil || rate <= 0 {
			return nil, custom_err.NewAPIRequestError(coinGeckoSource,
				fmt.Sprintf("неправильное значение курса для %s: %q", code, raw.String()), nil)
		}

		pair := models.PairKey(code, c.baseCurrency)
		result[pair] = PairRate{
			Rate: rate,
			Meta: map[string]any{
				"raw_id":      rawID,
				"request_ms":  elapsedMs,
				"status_code": resp.StatusCode,
				"etag":        resp.Header.Get("ETag"),
			},
		}
	}

	return result, nil
}
