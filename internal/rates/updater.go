package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

// Updater опрашивает источники и вливает их курсы в снапшот хранилища.
// Слияние инкрементальное: пары, не пришедшие в этом цикле, остаются из
// прошлого снапшота. updateMu делает ручной update-rates и тик
// планировщика взаимоисключающими, чтобы два цикла не затирали слияния
// друг друга.
type Updater struct {
	sources  []RateSource
	storage  jsonfile.RatesStorage
	log      *slog.Logger
	updateMu sync.Mutex
}

func NewUpdater(sources []RateSource, storage jsonfile.RatesStorage, log *slog.Logger) *Updater {
	return &Updater{
		sources: sources,
		storage: storage,
		log:     log,
	}
}

// RunUpdate выполняет один цикл обновления по всем настроенным источникам.
// Отказ одного источника (APIRequestError) логируется и пропускается, не
// прерывая остальных. Если не ответил ни один источник, цикл no-op:
// снапшот и история не трогаются, пишется warning. Любая другая ошибка
// фатальна и возвращается вызывающему.
func (u *Updater) RunUpdate(ctx context.Context, trigger string) error {
	return u.runUpdate(ctx, trigger, u.sources)
}

// RunUpdateFrom выполняет цикл только по выбранным источникам
// (update-rates --source X).
func (u *Updater) RunUpdateFrom(ctx context.Context, trigger string, sources []RateSource) error {
	return u.runUpdate(ctx, trigger, sources)
}

func (u *Updater) runUpdate(ctx context.Context, trigger string, sources []RateSource) error {
	const op = "rates.RunUpdate"

	u.updateMu.Lock()
	defer u.updateMu.Unlock()

	log := u.log.With(slog.String("trigger", trigger))
	log.Info("запуск обновления курсов", slog.Int("sources", len(sources)))

	combined := make(map[string]models.CurrencyPairRate)
	var historyRecords []models.HistoryRecord

	timestamp := time.Now().UTC()

	for _, src := range sources {
		log.Info("запрос курсов у источника", slog.String("source", src.Name()))

		fetched, err := src.FetchRates(ctx)
		if err != nil {
			var apiErr *custom_err.APIRequestError
			if errors.As(err, &apiErr) {
				log.Error("источник недоступен, пропускаем",
					slog.String("source", src.Name()),
					slog.String("error", err.Error()))
				continue
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("успешно получены данные",
			slog.String("source", src.Name()),
			slog.Int("pairs", len(fetched)))

		for pair, pr := range fetched {
			combined[pair] = models.CurrencyPairRate{
				Rate:      pr.Rate,
				UpdatedAt: timestamp,
				Source:    src.Name(),
			}
		}

		historyRecords = append(historyRecords, buildHistoryRecords(fetched, src.Name(), timestamp)...)
	}

	if len(combined) == 0 {
		log.Warn("не удалось получить курсы ни от одного источника")
		return nil
	}

	snapshot, err := u.storage.Load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for pair, rate := range combined {
		snapshot.Pairs[pair] = rate
	}
	snapshot.LastRefresh = &timestamp

	if err := u.storage.Save(snapshot); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := u.storage.AppendHistory(historyRecords); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("обновление завершено",
		slog.Int("pairs", len(combined)),
		slog.Int("history_records", len(historyRecords)))

	return nil
}

func buildHistoryRecords(fetched map[string]PairRate, source string, timestamp time.Time) []models.HistoryRecord {
	records := make([]models.HistoryRecord, 0, len(fetched))

	for pair, pr := range fetched {
		from, to, ok := models.SplitPairKey(pair)
		if !ok {
			continue
		}

		records = append(records, models.HistoryRecord{
			ID:           uuid.NewString(),
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         pr.Rate,
			Timestamp:    timestamp,
			Source:       source,
			Meta:         pr.Meta,
		})
	}

	return records
}
