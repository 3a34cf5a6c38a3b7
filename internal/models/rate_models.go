package models

import (
	"fmt"
	"strings"
	"time"
)

// PairKey формирует ключ направленного курса вида "FROM_TO".
func PairKey(from, to string) string {
	return fmt.Sprintf("%s_%s", from, to)
}

// SplitPairKey разбирает ключ "FROM_TO" обратно на валюты.
func SplitPairKey(key string) (from, to string, ok bool) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// CurrencyPairRate один направленный курс в снапшоте. Инвариант: Rate > 0.
type CurrencyPairRate struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// RatesSnapshot полный документ rates.json. LastRefresh отражает
// последний успешный цикл обновления, даже частичный; nil до первого
// успешного обновления.
type RatesSnapshot struct {
	Pairs       map[string]CurrencyPairRate `json:"pairs"`
	LastRefresh *time.Time                  `json:"last_refresh"`
}

// NewRatesSnapshot возвращает пустой снапшот холодного старта.
func NewRatesSnapshot() *RatesSnapshot {
	return &RatesSnapshot{Pairs: make(map[string]CurrencyPairRate)}
}

// HistoryRecord одна запись append-only журнала курсов.
type HistoryRecord struct {
	ID           string         `json:"id"`
	FromCurrency string         `json:"from_currency"`
	ToCurrency   string         `json:"to_currency"`
	Rate         float64        `json:"rate"`
	Timestamp    time.Time      `json:"timestamp"`
	Source       string         `json:"source"`
	Meta         map[string]any `json:"meta,omitempty"`
}
