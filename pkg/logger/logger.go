package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LevelBasedMuxHandler дублирует записи в stdout и в файл журнала.
// В файл пишутся записи уровня INFO и выше с указанием источника,
// в stdout — по настроенному уровню.
type LevelBasedMuxHandler struct {
	stdoutHandler slog.Handler
	fileHandler   slog.Handler
}

type LoggerWithFile struct {
	Logger  *slog.Logger
	LogFile *os.File
}

func NewLevelBasedMuxHandler(stdout, file io.Writer, level slog.Level) *LevelBasedMuxHandler {
	return &LevelBasedMuxHandler{

		stdoutHandler: slog.NewJSONHandler(stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
		}),

		fileHandler: slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		}),
	}
}

func (h *LevelBasedMuxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.fileHandler.Enabled(ctx, level)
}

func (h *LevelBasedMuxHandler) Handle(ctx context.Context, r slog.Record) error {

	if r.Level >= slog.LevelInfo {
		if err := h.fileHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	if h.stdoutHandler.Enabled(ctx, r.Level) {
		return h.stdoutHandler.Handle(ctx, r)
	}
	return nil
}

func (h *LevelBasedMuxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelBasedMuxHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		fileHandler:   h.fileHandler.WithAttrs(attrs),
	}
}

func (h *LevelBasedMuxHandler) WithGroup(name string) slog.Handler {
	return &LevelBasedMuxHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		fileHandler:   h.fileHandler.WithGroup(name),
	}
}

// NewLoggerWithFile создает логгер с дублированием в файл fileName.
// Директория файла создается при необходимости.
func NewLoggerWithFile(fileName string, level slog.Level) (*LoggerWithFile, error) {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию логов: %w", err)
		}
	}

	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл логов: %w", err)
	}

	handler := NewLevelBasedMuxHandler(os.Stdout, logFile, level)
	return &LoggerWithFile{
		Logger:  slog.New(handler),
		LogFile: logFile,
	}, nil
}

// ParseLevel переводит строковый уровень из конфигурации в slog.Level.
// Неизвестное значение трактуется как INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
