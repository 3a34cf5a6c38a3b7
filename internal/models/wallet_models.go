package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
)

// Wallet представляет кошелек в одной валюте. Баланс не может уходить
// в минус. Арифметика ведется через decimal, чтобы цепочки
// покупок/продаж не накапливали двоичную погрешность.
type Wallet struct {
	CurrencyCode string  `json:"-"`
	Balance      float64 `json:"balance"`
}

// NewWallet создает кошелек с неотрицательным стартовым балансом.
func NewWallet(currencyCode string, balance float64) (*Wallet, error) {
	if strings.TrimSpace(currencyCode) == "" {
		return nil, fmt.Errorf("%w: некорректный код валюты", custom_err.ErrInvalidInput)
	}
	if balance < 0 {
		return nil, fmt.Errorf("%w: баланс не может быть меньше 0", custom_err.ErrInvalidAmount)
	}
	return &Wallet{CurrencyCode: currencyCode, Balance: balance}, nil
}

// Deposit увеличивает баланс на amount.
func (w *Wallet) Deposit(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: сумма пополнения должна быть положительной", custom_err.ErrInvalidAmount)
	}
	w.Balance = decimal.NewFromFloat(w.Balance).
		Add(decimal.NewFromFloat(amount)).
		InexactFloat64()
	return nil
}

// Withdraw уменьшает баланс на amount, запрещая уход в минус.
func (w *Wallet) Withdraw(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: сумма снятия должна быть положительной", custom_err.ErrInvalidAmount)
	}
	if amount > w.Balance {
		return &custom_err.InsufficientFundsError{
			Available: w.Balance,
			Code:      w.CurrencyCode,
			Required:  amount,
		}
	}
	w.Balance = decimal.NewFromFloat(w.Balance).
		Sub(decimal.NewFromFloat(amount)).
		InexactFloat64()
	return nil
}

// Portfolio хранит кошельки одного пользователя по кодам валют.
// Ровно один портфель на пользователя, создается при регистрации.
type Portfolio struct {
	UserID  int                `json:"user_id"`
	Wallets map[string]*Wallet `json:"wallets"`
}

// NewPortfolio создает пустой портфель пользователя.
func NewPortfolio(userID int) *Portfolio {
	return &Portfolio{
		UserID:  userID,
		Wallets: make(map[string]*Wallet),
	}
}

// HasWallet проверяет наличие кошелька валюты.
func (p *Portfolio) HasWallet(currencyCode string) bool {
	_, ok := p.Wallets[currencyCode]
	return ok
}

// GetWallet возвращает кошелек валюты.
func (p *Portfolio) GetWallet(currencyCode string) (*Wallet, error) {
	w, ok := p.Wallets[currencyCode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", custom_err.ErrWalletNotFound, currencyCode)
	}
	return w, nil
}

// AddCurrency создает кошелек новой валюты со стартовым балансом.
func (p *Portfolio) AddCurrency(currencyCode string, initBalance float64) (*Wallet, error) {
	if p.HasWallet(currencyCode) {
		return nil, fmt.Errorf("%w: кошелек %s уже существует", custom_err.ErrInvalidInput, currencyCode)
	}
	w, err := NewWallet(currencyCode, initBalance)
	if err != nil {
		return nil, err
	}
	if p.Wallets == nil {
		p.Wallets = make(map[string]*Wallet)
	}
	p.Wallets[currencyCode] = w
	return w, nil
}

// GetOrCreateWallet возвращает кошелек валюты, создавая пустой при
// первом обращении.
func (p *Portfolio) GetOrCreateWallet(currencyCode string) (*Wallet, error) {
	if p.HasWallet(currencyCode) {
		return p.GetWallet(currencyCode)
	}
	return p.AddCurrency(currencyCode, 0)
}

// SortedCodes возвращает коды кошельков в стабильном порядке для вывода.
func (p *Portfolio) SortedCodes() []string {
	codes := make([]string, 0, len(p.Wallets))
	for code := range p.Wallets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
