package rates

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

// RatePair ответ get-rate: курс в обе стороны плюс момент обновления
// той записи, по которой шла проверка свежести.
type RatePair struct {
	Rate        float64
	ReverseRate float64
	UpdatedAt   time.Time
}

// Service читающая сторона кэша курсов. Свежесть проверяется по
// updated_at той записи снапшота, которая реально использована, а не по
// глобальному last_refresh.
type Service struct {
	storage jsonfile.RatesStorage
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time
}

func NewService(storage jsonfile.RatesStorage, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		storage: storage,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// GetRate возвращает курс from->to. Тождественная конвертация всегда 1.0
// без обращения к хранилищу. Если хранится только обратная пара, курс
// выводится как мультипликативная инверсия — согласованность прямого и
// обратного курса источников при этом не проверяется.
func (s *Service) GetRate(from, to string) (float64, error) {
	const op = "rates.GetRate"

	if from == to {
		return 1.0, nil
	}

	snapshot, err := s.storage.Load()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if entry, ok := snapshot.Pairs[models.PairKey(from, to)]; ok {
		if err := s.checkFreshness(entry); err != nil {
			return 0, err
		}
		return entry.Rate, nil
	}

	if entry, ok := snapshot.Pairs[models.PairKey(to, from)]; ok {
		if err := s.checkFreshness(entry); err != nil {
			return 0, err
		}
		if entry.Rate <= 0 {
			return 0, fmt.Errorf("%s: %w: некорректный обратный курс", op, custom_err.ErrRateUnavailable)
		}
		return 1 / entry.Rate, nil
	}

	return 0, fmt.Errorf("%w: %s -> %s", custom_err.ErrRateUnavailable, from, to)
}

// GetRatePair возвращает оба направления и момент обновления одним
// вызовом. Проверка свежести выполняется один раз — по найденной записи,
// а не отдельно на каждое направление: если из двух записей устарела
// лишь одна, пара все равно может быть отдана по свежей.
func (s *Service) GetRatePair(from, to string) (*RatePair, error) {
	const op = "rates.GetRatePair"

	if from == to {
		return &RatePair{Rate: 1.0, ReverseRate: 1.0, UpdatedAt: s.now().UTC()}, nil
	}

	snapshot, err := s.storage.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	direct, hasDirect := snapshot.Pairs[models.PairKey(from, to)]
	reverse, hasReverse := snapshot.Pairs[models.PairKey(to, from)]

	if !hasDirect && !hasReverse {
		return nil, fmt.Errorf("%w: %s -> %s", custom_err.ErrRateUnavailable, from, to)
	}

	// свежесть меряем по той записи, что нашлась (при обеих — по прямой)
	checked := direct
	if !hasDirect {
		checked = reverse
	}
	if err := s.checkFreshness(checked); err != nil {
		return nil, err
	}

	pair := &RatePair{UpdatedAt: checked.UpdatedAt}

	switch {
	case hasDirect && hasReverse:
		pair.Rate = direct.Rate
		pair.ReverseRate = reverse.Rate
	case hasDirect:
		pair.Rate = direct.Rate
		if direct.Rate > 0 {
			pair.ReverseRate = 1 / direct.Rate
		}
	default:
		pair.ReverseRate = reverse.Rate
		if reverse.Rate > 0 {
			pair.Rate = 1 / reverse.Rate
		}
	}

	if pair.Rate <= 0 || pair.ReverseRate <= 0 {
		return nil, fmt.Errorf("%w: %s -> %s", custom_err.ErrRateUnavailable, from, to)
	}

	return pair, nil
}

func (s *Service) checkFreshness(entry models.CurrencyPairRate) error {
	age := s.now().UTC().Sub(entry.UpdatedAt)
	if age > s.ttl {
		s.log.Debug("запись кэша устарела",
			slog.String("source", entry.Source),
			slog.Duration("age", age),
			slog.Duration("ttl", s.ttl))
		return custom_err.ErrStaleRate
	}
	return nil
}
