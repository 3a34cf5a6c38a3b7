package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseCurrency    string        `envconfig:"BASE_CURRENCY" default:"USD"`
	DataDir         string        `envconfig:"DATA_DIR" default:"data"`
	StartingBalance float64       `envconfig:"STARTING_BALANCE" default:"100"`
	RatesTTL        time.Duration `envconfig:"RATES_TTL" default:"5m"`
	UpdateInterval  time.Duration `envconfig:"RATES_UPDATE_INTERVAL" default:"150s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFile         string        `envconfig:"LOG_FILE" default:"logs/actions.log"`

	API     APIConfig
	Session SessionConfig
}

type APIConfig struct {
	CoinGeckoURL       string        `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3/simple/price"`
	ExchangeRateURL    string        `envconfig:"EXCHANGERATE_API_URL" default:"https://v6.exchangerate-api.com/v6"`
	ExchangeRateKey    string        `envconfig:"EXCHANGERATE_API_KEY"`
	ExchangeRateKeyFile string        `envconfig:"EXCHANGERATE_API_KEY_FILE"`
	RequestTimeout     time.Duration `envconfig:"API_REQUEST_TIMEOUT" default:"10s"`
}

type SessionConfig struct {
	Secret     string        `envconfig:"SESSION_SECRET" default:"valutatrade-dev-secret"`
	Expiration time.Duration `envconfig:"SESSION_EXPIRATION" default:"24h"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	// API ключ можно положить в файл вместо переменной окружения
	if cfg.API.ExchangeRateKey == "" && cfg.API.ExchangeRateKeyFile != "" {
		key, err := os.ReadFile(cfg.API.ExchangeRateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать файл API ключа: %w", err)
		}
		cfg.API.ExchangeRateKey = strings.TrimSpace(string(key))
	}

	return &cfg, nil
}

// RatesFilePath путь к снапшоту курсов.
func (c *Config) RatesFilePath() string {
	return filepath.Join(c.DataDir, "rates.json")
}

// HistoryFilePath путь к журналу истории курсов.
func (c *Config) HistoryFilePath() string {
	return filepath.Join(c.DataDir, "exchange_rates.json")
}
