package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
)

// parseCommand разбирает строку REPL: первое слово — команда, дальше
// пары "--флаг значение".
func parseCommand(line string) (string, map[string]string, error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return "", nil, nil
	}

	command := parts[0]
	params := make(map[string]string)

	i := 1
	for i < len(parts) {
		if !strings.HasPrefix(parts[i], "--") {
			return "", nil, fmt.Errorf("%w: аргументы должны начинаться с '--'", custom_err.ErrInvalidInput)
		}
		key := strings.TrimPrefix(parts[i], "--")
		if key == "" {
			return "", nil, fmt.Errorf("%w: пустое имя параметра", custom_err.ErrInvalidInput)
		}
		if i+1 >= len(parts) {
			return "", nil, fmt.Errorf("%w: не указано значение для параметра --%s", custom_err.ErrInvalidInput, key)
		}
		params[key] = parts[i+1]
		i += 2
	}

	return command, params, nil
}

// requireParams проверяет наличие обязательных аргументов команды.
func requireParams(params map[string]string, required ...string) error {
	var missing []string
	for _, name := range required {
		if params[name] == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: отсутствуют обязательные аргументы: %s",
			custom_err.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// parseAmount валидирует числовой параметр --amount.
func parseAmount(params map[string]string) (float64, error) {
	amount, err := strconv.ParseFloat(params["amount"], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: параметр --amount должен быть числом", custom_err.ErrInvalidAmount)
	}
	return amount, nil
}
