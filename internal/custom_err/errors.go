package custom_err

import (
	"errors"
	"fmt"
)

var (
	// User errors
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidToken       = errors.New("invalid or expired session token")

	// Wallet errors
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Rates errors
	ErrRateUnavailable = errors.New("rate unavailable")
	ErrStaleRate       = errors.New("rate unavailable: cache is stale")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")
)

// APIRequestError помечает любую ошибку обращения к внешнему API курсов:
// сеть, не-2xx статус, битый JSON, отсутствие ожидаемых полей в ответе.
// Updater ловит именно этот тип и пропускает источник, не прерывая цикл.
type APIRequestError struct {
	Source string
	Reason string
	Err    error
}

func (e *APIRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ошибка при обращении к %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("ошибка при обращении к %s: %s", e.Source, e.Reason)
}

func (e *APIRequestError) Unwrap() error { return e.Err }

func NewAPIRequestError(source, reason string, err error) *APIRequestError {
	return &APIRequestError{Source: source, Reason: reason, Err: err}
}

// InsufficientFundsError хранит контекст отказа для сообщения пользователю.
type InsufficientFundsError struct {
	Available float64
	Code      string
	Required  float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно средств: доступно %.8f %s, требуется %.8f %s",
		e.Available, e.Code, e.Required, e.Code)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// CurrencyNotFoundError возвращается реестром валют по неизвестному коду.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("неизвестная валюта %q", e.Code)
}

func (e *CurrencyNotFoundError) Is(target error) bool {
	return target == ErrInvalidCurrency
}
