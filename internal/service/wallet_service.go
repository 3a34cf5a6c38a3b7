package service

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/rates"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

type Wallet interface {
	Buy(currency string, amount float64) (*TradeResult, error)
	Sell(currency string, amount float64) (*TradeResult, error)
	Deposit(amount float64) (*DepositResult, error)
	ShowPortfolio(base string) (*PortfolioView, error)
	GetRate(from, to string) (*rates.RatePair, error)
}

// TradeResult изменения портфеля после покупки или продажи.
type TradeResult struct {
	Currency   string
	Amount     float64
	Rate       float64
	Cost       float64 // оценочная стоимость сделки в базовой валюте
	Before     float64
	After      float64
	BaseBefore float64
	BaseAfter  float64
}

// DepositResult баланс базового кошелька до и после пополнения.
type DepositResult struct {
	Currency string
	Amount   float64
	Before   float64
	After    float64
}

// PortfolioItem один кошелек в выводе show-portfolio.
type PortfolioItem struct {
	Currency  string
	Balance   float64
	Converted float64
}

// PortfolioView портфель, оцененный в базовой валюте.
type PortfolioView struct {
	Base  string
	Items []PortfolioItem
	Total float64
}

// WalletService торговые операции портфеля. Порядок жесткий: сначала курс
// и все проверки, мутации балансов только после — ошибка курса или
// нехватка средств не оставляют частично измененных кошельков.
type WalletService struct {
	portfolioRepo jsonfile.PortfolioRepository
	ratesService  *rates.Service
	auth          Auth
	baseCurrency  string
	log           *slog.Logger
}

func NewWalletService(
	portfolioRepo jsonfile.PortfolioRepository,
	ratesService *rates.Service,
	auth Auth,
	baseCurrency string,
	log *slog.Logger,
) *WalletService {
	return &WalletService{
		portfolioRepo: portfolioRepo,
		ratesService:  ratesService,
		auth:          auth,
		baseCurrency:  baseCurrency,
		log:           log,
	}
}

// Buy покупает amount валюты за базовую по текущему курсу.
func (s *WalletService) Buy(currency string, amount float64) (result *TradeResult, err error) {
	var sess *models.Session
	defer func() {
		logAction(s.log, "buy", sess, err,
			slog.String("currency", currency),
			slog.Float64("amount", amount))
	}()

	sess, err = s.auth.Current()
	if err != nil {
		return nil, err
	}
	if err = validateTrade(currency, amount, s.baseCurrency); err != nil {
		return nil, err
	}

	// курс до любых мутаций: его недоступность валит сделку целиком
	rate, err := s.ratesService.GetRate(currency, s.baseCurrency)
	if err != nil {
		return nil, err
	}
	cost := mulFloat(amount, rate)

	portfolio, err := s.portfolioRepo.GetByUserID(sess.UserID)
	if err != nil {
		return nil, err
	}

	baseWallet, err := portfolio.GetOrCreateWallet(s.baseCurrency)
	if err != nil {
		return nil, err
	}
	if cost > baseWallet.Balance {
		return nil, &custom_err.InsufficientFundsError{
			Available: baseWallet.Balance,
			Code:      s.baseCurrency,
			Required:  cost,
		}
	}

	wallet, err := portfolio.GetOrCreateWallet(currency)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	baseBefore := baseWallet.Balance

	if err = baseWallet.Withdraw(cost); err != nil {
		return nil, err
	}
	if err = wallet.Deposit(amount); err != nil {
		return nil, err
	}

	if err = s.portfolioRepo.Save(portfolio); err != nil {
		return nil, err
	}

	return &TradeResult{
		Currency:   currency,
		Amount:     amount,
		Rate:       rate,
		Cost:       cost,
		Before:     before,
		After:      wallet.Balance,
		BaseBefore: baseBefore,
		BaseAfter:  baseWallet.Balance,
	}, nil
}

// Sell продает amount валюты, выручка зачисляется в базовую.
func (s *WalletService) Sell(currency string, amount float64) (result *TradeResult, err error) {
	var sess *models.Session
	defer func() {
		logAction(s.log, "sell", sess, err,
			slog.String("currency", currency),
			slog.Float64("amount", amount))
	}()

	sess, err = s.auth.Current()
	if err != nil {
		return nil, err
	}
	if err = validateTrade(currency, amount, s.baseCurrency); err != nil {
		return nil, err
	}

	rate, err := s.ratesService.GetRate(currency, s.baseCurrency)
	if err != nil {
		return nil, err
	}
	proceeds := mulFloat(amount, rate)

	portfolio, err := s.portfolioRepo.GetByUserID(sess.UserID)
	if err != nil {
		return nil, err
	}

	if !portfolio.HasWallet(currency) {
		return nil, fmt.Errorf("%w: у вас нет кошелька %s, он создается при первой покупке",
			custom_err.ErrWalletNotFound, currency)
	}
	wallet, err := portfolio.GetWallet(currency)
	if err != nil {
		return nil, err
	}
	if amount > wallet.Balance {
		return nil, &custom_err.InsufficientFundsError{
			Available: wallet.Balance,
			Code:      currency,
			Required:  amount,
		}
	}

	baseWallet, err := portfolio.GetOrCreateWallet(s.baseCurrency)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	baseBefore := baseWallet.Balance

	if err = wallet.Withdraw(amount); err != nil {
		return nil, err
	}
	if err = baseWallet.Deposit(proceeds); err != nil {
		return nil, err
	}

	if err = s.portfolioRepo.Save(portfolio); err != nil {
		return nil, err
	}

	return &TradeResult{
		Currency:   currency,
		Amount:     amount,
		Rate:       rate,
		Cost:       proceeds,
		Before:     before,
		After:      wallet.Balance,
		BaseBefore: baseBefore,
		BaseAfter:  baseWallet.Balance,
	}, nil
}

// Deposit пополняет кошелек базовой валюты.
func (s *WalletService) Deposit(amount float64) (result *DepositResult, err error) {
	var sess *models.Session
	defer func() {
		logAction(s.log, "deposit", sess, err, slog.Float64("amount", amount))
	}()

	sess, err = s.auth.Current()
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: сумма пополнения должна быть положительной", custom_err.ErrInvalidAmount)
	}

	portfolio, err := s.portfolioRepo.GetByUserID(sess.UserID)
	if err != nil {
		return nil, err
	}

	wallet, err := portfolio.GetOrCreateWallet(s.baseCurrency)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	if err = wallet.Deposit(amount); err != nil {
		return nil, err
	}

	if err = s.portfolioRepo.Save(portfolio); err != nil {
		return nil, err
	}

	return &DepositResult{
		Currency: s.baseCurrency,
		Amount:   amount,
		Before:   before,
		After:    wallet.Balance,
	}, nil
}

// ShowPortfolio оценивает каждый кошелек и весь портфель в валюте base.
func (s *WalletService) ShowPortfolio(base string) (view *PortfolioView, err error) {
	var sess *models.Session
	defer func() {
		logAction(s.log, "show-portfolio", sess, err, slog.String("base", base))
	}()

	sess, err = s.auth.Current()
	if err != nil {
		return nil, err
	}
	if !models.IsKnownCurrency(base) {
		return nil, &custom_err.CurrencyNotFoundError{Code: base}
	}

	portfolio, err := s.portfolioRepo.GetByUserID(sess.UserID)
	if err != nil {
		return nil, err
	}
	if len(portfolio.Wallets) == 0 {
		return nil, fmt.Errorf("%w: портфель пуст", custom_err.ErrWalletNotFound)
	}

	view = &PortfolioView{Base: base}
	total := decimal.Zero

	for _, code := range portfolio.SortedCodes() {
		wallet := portfolio.Wallets[code]

		rate, err := s.ratesService.GetRate(code, base)
		if err != nil {
			return nil, err
		}
		converted := mulFloat(wallet.Balance, rate)

		view.Items = append(view.Items, PortfolioItem{
			Currency:  code,
			Balance:   wallet.Balance,
			Converted: converted,
		})
		total = total.Add(decimal.NewFromFloat(converted))
	}

	view.Total = total.InexactFloat64()
	return view, nil
}

// GetRate возвращает курс пары в обе стороны. Требует входа, как и
// остальные операции.
func (s *WalletService) GetRate(from, to string) (pair *rates.RatePair, err error) {
	var sess *models.Session
	defer func() {
		logAction(s.log, "get-rate", sess, err,
			slog.String("from", from),
			slog.String("to", to))
	}()

	sess, err = s.auth.Current()
	if err != nil {
		return nil, err
	}

	if !models.IsKnownCurrency(from) {
		return nil, &custom_err.CurrencyNotFoundError{Code: from}
	}
	if !models.IsKnownCurrency(to) {
		return nil, &custom_err.CurrencyNotFoundError{Code: to}
	}

	return s.ratesService.GetRatePair(from, to)
}

func validateTrade(currency string, amount float64, baseCurrency string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: 'amount' должен быть положительным числом", custom_err.ErrInvalidAmount)
	}
	if !models.IsKnownCurrency(currency) {
		return &custom_err.CurrencyNotFoundError{Code: currency}
	}
	if currency == baseCurrency {
		return fmt.Errorf("%w: для базовой валюты используйте deposit", custom_err.ErrInvalidCurrency)
	}
	return nil
}

func mulFloat(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).InexactFloat64()
}
