package jsonfile

import (
	"fmt"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const usersFile = "users.json"

type UserRepository interface {
	Create(user *models.User) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByID(userID int) (*models.User, error)
	Update(user *models.User) error
	NextID() (int, error)
}

type JSONUserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) UserRepository {
	return &JSONUserRepository{store: store}
}

func (r *JSONUserRepository) loadAll() ([]*models.User, error) {
	var users []*models.User
	if err := r.store.readJSON(usersFile, &users); err != nil {
		if isNotExist(err) {
			return []*models.User{}, nil
		}
		return nil, err
	}
	return users, nil
}

// Create сохраняет нового пользователя, гарантируя уникальность имени.
// Идентификатор должен быть уже назначен через NextID под тем же вызовом.
func (r *JSONUserRepository) Create(user *models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.loadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, u := range users {
		if u.Username == user.Username {
			return nil, custom_err.ErrUsernameTaken
		}
	}

	if user.UserID == 0 {
		user.UserID = nextUserID(users)
	}

	users = append(users, user)
	if err := r.store.writeJSON(usersFile, users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *JSONUserRepository) GetByUsername(username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.loadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, custom_err.ErrUserNotFound
}

func (r *JSONUserRepository) GetByID(userID int) (*models.User, error) {
	const op = "storage.GetUserByID"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.loadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, u := range users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, custom_err.ErrUserNotFound
}

// Update перезаписывает запись пользователя, например после смены пароля.
func (r *JSONUserRepository) Update(user *models.User) error {
	const op = "storage.UpdateUser"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.loadAll()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for i, u := range users {
		if u.UserID == user.UserID {
			users[i] = user
			if err := r.store.writeJSON(usersFile, users); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			return nil
		}
	}
	return custom_err.ErrUserNotFound
}

// NextID возвращает следующий монотонный идентификатор пользователя.
func (r *JSONUserRepository) NextID() (int, error) {
	const op = "storage.NextUserID"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.loadAll()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return nextUserID(users), nil
}

func nextUserID(users []*models.User) int {
	maxID := 0
	for _, u := range users {
		if u.UserID > maxID {
			maxID = u.UserID
		}
	}
	return maxID + 1
}
