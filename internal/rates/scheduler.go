package rates

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler периодически вызывает Updater в фоновом контексте. Состояния
// два: stopped и running. Дрейф не корректируется, из паузы лишь
// вычитается время самого цикла.
type Scheduler struct {
	updater  *Updater
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewScheduler(updater *Updater, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		updater:  updater,
		interval: interval,
		log:      log,
	}
}

// Start блокирующе крутит цикл обновления до Stop или отмены контекста.
// Ошибка, кроме отказа API (тот гасится внутри Updater), фатальна:
// логируется и возвращается, завершая цикл. Перезапуск — ответственность
// супервизора процесса.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("планировщик запущен",
		slog.Duration("interval", s.interval))

	for {
		start := time.Now()

		if err := s.updater.RunUpdate(ctx, "scheduler"); err != nil {
			s.log.Error("критическая ошибка планировщика", slog.String("error", err.Error()))
			return err
		}

		elapsed := time.Since(start)
		sleep := s.interval - elapsed
		if sleep < 0 {
			sleep = 0
		}

		s.log.Info("следующее обновление",
			slog.Duration("through", sleep))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("планировщик остановлен: контекст отменен")
			return nil
		case <-stopCh:
			timer.Stop()
			s.log.Info("планировщик остановлен")
			return nil
		case <-timer.C:
		}
	}
}

// Stop переводит планировщик в состояние stopped. Идемпотентен.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// Running сообщает текущее состояние планировщика.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
