package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

// logAction пишет структурированную запись аудита доменной операции:
// кто, что, результат OK/ERROR и тип ошибки. Только логирование —
// успех/ошибка самой операции не перехватываются и не подменяются.
func logAction(log *slog.Logger, action string, sess *models.Session, err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("audit_id", uuid.NewString()),
		slog.String("action", action),
	}

	if sess != nil {
		attrs = append(attrs,
			slog.Int("user_id", sess.UserID),
			slog.String("username", sess.Username))
	}

	attrs = append(attrs, extra...)

	if err != nil {
		attrs = append(attrs,
			slog.String("result", "ERROR"),
			slog.String("error_type", errorType(err)),
			slog.String("error_message", err.Error()))
		log.LogAttrs(context.Background(), slog.LevelError, "action", attrs...)
		return
	}

	attrs = append(attrs, slog.String("result", "OK"))
	log.LogAttrs(context.Background(), slog.LevelInfo, "action", attrs...)
}

func errorType(err error) string {
	var unwrapped error = err
	for {
		next := errors.Unwrap(unwrapped)
		if next == nil {
			break
		}
		unwrapped = next
	}
	return fmt.Sprintf("%T", unwrapped)
}
