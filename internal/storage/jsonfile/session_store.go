package jsonfile

import (
	"fmt"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
)

const sessionFile = "session.json"

// SessionStore хранит единственный сессионный слот процесса: кто сейчас
// вошел в систему. Пустой файл или его отсутствие означает "никто".
type SessionStore interface {
	Load() (*models.Session, error)
	Save(session *models.Session) error
	Clear() error
}

type JSONSessionStore struct {
	store *Store
}

func NewSessionStore(store *Store) SessionStore {
	return &JSONSessionStore{store: store}
}

func (s *JSONSessionStore) Load() (*models.Session, error) {
	const op = "storage.LoadSession"

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	var session models.Session
	if err := s.store.readJSON(sessionFile, &session); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.UserID == 0 && session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

func (s *JSONSessionStore) Save(session *models.Session) error {
	const op = "storage.SaveSession"

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := s.store.writeJSON(sessionFile, session); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *JSONSessionStore) Clear() error {
	const op = "storage.ClearSession"

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := s.store.writeJSON(sessionFile, &models.Session{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
