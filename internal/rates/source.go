package rates

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/config"
)

// PairRate сырой курс одной пары от источника до слияния в снапшот.
type PairRate struct {
	Rate float64
	Meta map[string]any
}

// RateSource единый интерфейс API-клиента курсов. Каждая реализация
// возвращает курсы в стандартизированном виде {"BTC_USD": ...} и обязана
// завершаться *custom_err.APIRequestError при любой ошибке API или сети:
// частичный успех молча не допускается.
type RateSource interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]PairRate, error)
}

// Registry сопоставляет короткие имена источников их клиентам. Используется
// и для выборочного ручного обновления, и для режима "со всех источников".
type Registry struct {
	sources map[string]RateSource
}

// NewRegistry собирает реестр стандартных источников.
func NewRegistry(cfg *config.Config) *Registry {
	httpClient := &http.Client{Timeout: cfg.API.RequestTimeout}

	return &Registry{sources: map[string]RateSource{
		"coingecko":    NewCoinGeckoClient(cfg, httpClient),
		"exchangerate": NewExchangeRateClient(cfg, httpClient),
	}}
}

// Get возвращает источник по короткому имени.
func (r *Registry) Get(name string) (RateSource, error) {
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("неизвестный источник курсов %q (доступны: %v)", name, r.Names())
	}
	return src, nil
}

// All возвращает все источники в стабильном порядке.
func (r *Registry) All() []RateSource {
	names := r.Names()
	sources := make([]RateSource, 0, len(names))
	for _, name := range names {
		sources = append(sources, r.sources[name])
	}
	return sources
}

// Names возвращает отсортированные короткие имена источников.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
