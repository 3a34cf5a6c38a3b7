package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store общая файловая база всех json-репозиториев. Все чтения и записи
// сериализуются одним мьютексом: rename защищает только от падения
// процесса посреди записи, но не от гонки планировщика и ручного
// update-rates за один файл.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON читает файл в out. Отсутствие файла возвращается как
// fs.ErrNotExist, чтобы вызывающий подставил дефолт холодного старта.
func (s *Store) readJSON(name string, out any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("файл %s поврежден: %w", name, err)
	}
	return nil
}

// writeJSON атомарно сохраняет данные: пишет во временный файл и
// переименовывает его поверх целевого.
func (s *Store) writeJSON(name string, data any) error {
	raw, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("не удалось сериализовать %s: %w", name, err)
	}

	target := s.path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("не удалось записать %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("не удалось заменить %s: %w", name, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
