package jsonfile

import (
	"fmt"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const portfoliosFile = "portfolios.json"

type PortfolioRepository interface {
	Create(portfolio *models.Portfolio) error
	GetByUserID(userID int) (*models.Portfolio, error)
	Save(portfolio *models.Portfolio) error
}

type JSONPortfolioRepository struct {
	store *Store
}

func NewPortfolioRepository(store *Store) PortfolioRepository {
	return &JSONPortfolioRepository{store: store}
}

func (r *JSONPortfolioRepository) loadAll() ([]*models.Portfolio, error) {
	var portfolios []*models.Portfolio
	if err := r.store.readJSON(portfoliosFile, &portfolios); err != nil {
		if isNotExist(err) {
			return []*models.Portfolio{}, nil
		}
		return nil, err
	}
	// код валюты не хранится внутри кошелька, восстанавливаем из ключа
	for _, p := range portfolios {
		for code, w := range p.Wallets {
			w.CurrencyCode = code
		}
	}
	return portfolios, nil
}

// Create сохраняет портфель нового пользователя. Повторное создание для
// того же user_id игнорируется.
func (r *JSONPortfolioRepository) Create(portfolio *models.Portfolio) error {
	const op = "storage.CreatePortfolio"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	portfolios, err := r.loadAll()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range portfolios {
		if p.UserID == portfolio.UserID {
			return nil
		}
	}
	portfolios = append(portfolios, portfolio)
	if err := r.store.writeJSON(portfoliosFile, portfolios); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *JSONPortfolioRepository) GetByUserID(userID int) (*models.Portfolio, error) {
	const op = "storage.GetPortfolio"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	portfolios, err := r.loadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range portfolios {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, custom_err.ErrUserNotFound)
}

// Save перезаписывает портфель пользователя, добавляя его при отсутствии.
func (r *JSONPortfolioRepository) Save(portfolio *models.Portfolio) error {
	const op = "storage.SavePortfolio"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	portfolios, err := r.loadAll()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	replaced := false
	for i, p := range portfolios {
		if p.UserID == portfolio.UserID {
			portfolios[i] = portfolio
			replaced = true
			break
		}
	}
	if !replaced {
		portfolios = append(portfolios, portfolio)
	}

	if err := r.store.writeJSON(portfoliosFile, portfolios); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
