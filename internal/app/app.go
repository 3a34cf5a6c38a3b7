package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/cli"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/config"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/rates"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/service"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/pkg/logger"
)

// App собирает все слои явно, без скрытых синглтонов: конфигурация и
// хранилище создаются один раз и передаются зависимостями.
type App struct {
	log       *slog.Logger
	logFile   *os.File
	cfg       *config.Config
	scheduler *rates.Scheduler
	cli       *cli.CLI
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	log := loggerWithFile.Logger
	log.Info("инициализация приложения",
		slog.String("base_currency", cfg.BaseCurrency),
		slog.String("data_dir", cfg.DataDir))

	store, err := jsonfile.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	userRepo := jsonfile.NewUserRepository(store)
	portfolioRepo := jsonfile.NewPortfolioRepository(store)
	ratesStorage := jsonfile.NewRatesStorage(store)
	sessionStore := jsonfile.NewSessionStore(store)

	registry := rates.NewRegistry(cfg)
	updater := rates.NewUpdater(registry.All(), ratesStorage, log)
	scheduler := rates.NewScheduler(updater, cfg.UpdateInterval, log)
	ratesService := rates.NewService(ratesStorage, cfg.RatesTTL, log)

	authService := service.NewAuthService(
		userRepo,
		portfolioRepo,
		sessionStore,
		cfg.Session.Secret,
		cfg.Session.Expiration,
		cfg.BaseCurrency,
		cfg.StartingBalance,
		log,
	)
	walletService := service.NewWalletService(
		portfolioRepo,
		ratesService,
		authService,
		cfg.BaseCurrency,
		log,
	)

	cliApp := cli.New(
		authService,
		walletService,
		updater,
		registry,
		ratesStorage,
		cfg.BaseCurrency,
		log,
	)

	log.Info("слои приложения собраны")

	return &App{
		log:       log,
		logFile:   loggerWithFile.LogFile,
		cfg:       cfg,
		scheduler: scheduler,
		cli:       cliApp,
	}, nil
}

// Run запускает планировщик в фоне и интерактивный цикл в основном
// контексте. Завершение — по exit/EOF в CLI или по сигналу.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schedulerErr := make(chan error, 1)
	go func() {
		if err := a.scheduler.Start(ctx); err != nil {
			schedulerErr <- err
		}
	}()

	cliDone := make(chan error, 1)
	go func() {
		cliDone <- a.cli.Run(ctx)
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case err := <-schedulerErr:
		// фатальная ошибка фонового цикла завершает процесс, рестарт
		// отдан супервизору
		runErr = fmt.Errorf("планировщик завершился с ошибкой: %w", err)
	case err := <-cliDone:
		runErr = err
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	cancel()
	a.scheduler.Stop()

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ошибка при закрытии файла логов: %v\n", err)
		}
	}

	return runErr
}
