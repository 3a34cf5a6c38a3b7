package jsonfile

import (
	"fmt"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const (
	ratesFile   = "rates.json"
	historyFile = "exchange_rates.json"
)

type RatesStorage interface {
	Load() (*models.RatesSnapshot, error)
	Save(snapshot *models.RatesSnapshot) error
	AppendHistory(records []models.HistoryRecord) error
	LoadHistory() ([]models.HistoryRecord, error)
}

type JSONRatesStorage struct {
	store *Store
}

func NewRatesStorage(store *Store) RatesStorage {
	return &JSONRatesStorage{store: store}
}

// Load возвращает снапшот курсов. Холодный старт без файла не считается
// ошибкой: возвращается пустой снапшот без last_refresh.
func (r *JSONRatesStorage) Load() (*models.RatesSnapshot, error) {
	const op = "storage.LoadRates"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var snapshot models.RatesSnapshot
	if err := r.store.readJSON(ratesFile, &snapshot); err != nil {
		if isNotExist(err) {
			return models.NewRatesSnapshot(), nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if snapshot.Pairs == nil {
		snapshot.Pairs = make(map[string]models.CurrencyPairRate)
	}
	return &snapshot, nil
}

// Save атомарно перезаписывает снапшот целиком.
func (r *JSONRatesStorage) Save(snapshot *models.RatesSnapshot) error {
	const op = "storage.SaveRates"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.writeJSON(ratesFile, snapshot); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AppendHistory дописывает записи в журнал. Отсутствующий или битый файл
// истории трактуется как пустой. Журнал переписывается целиком, что
// приемлемо, пока история остается небольшой.
func (r *JSONRatesStorage) AppendHistory(records []models.HistoryRecord) error {
	const op = "storage.AppendHistory"

	if len(records) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var history []models.HistoryRecord
	if err := r.store.readJSON(historyFile, &history); err != nil {
		history = nil
	}

	history = append(history, records...)
	if err := r.store.writeJSON(historyFile, history); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadHistory возвращает журнал истории, пустой при отсутствии файла.
func (r *JSONRatesStorage) LoadHistory() ([]models.HistoryRecord, error) {
	const op = "storage.LoadHistory"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var history []models.HistoryRecord
	if err := r.store.readJSON(historyFile, &history); err != nil {
		if isNotExist(err) {
			return []models.HistoryRecord{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history, nil
}
