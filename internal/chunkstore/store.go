package chunkstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store — файловое хранилище частей, разбитое на каталоги по сессиям.
type Store struct {
	root    string
	staging string
	log     zerolog.Logger
}

// SessionInfo описывает каталог сессии для GC и health.
type SessionInfo struct {
	ID      string
	ModTime time.Time
}

// New создаёт хранилище поверх каталога root, создавая его при необходимости.
func New(root string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		root:    root,
		staging: filepath.Join(root, stagingDirName),
		log:     log.With().Str("component", "chunkstore").Logger(),
	}

	if err := os.MkdirAll(s.staging, dirPerm); err != nil {
		return nil, models.NewStorageError("mkdir", s.staging, err)
	}

	return s, nil
}

// Root возвращает корневой каталог хранилища.
func (s *Store) Root() string { return s.root }

// SessionDir вычисляет каталог сессии. id должен быть проверен вызывающим.
func (s *Store) SessionDir(id string) string {
	return filepath.Join(s.root, id)
}

// ChunkPath вычисляет путь до части; чистая функция без обращения к диску.
func (s *Store) ChunkPath(id string, index int) string {
	return filepath.Join(s.SessionDir(id), strconv.Itoa(index))
}

// EnsureSessionDir идемпотентно создаёт каталог сессии.
func (s *Store) EnsureSessionDir(id string) (string, error) {
	dir := s.SessionDir(id)
	// MkdirAll не считает ошибкой каталог, созданный параллельным запросом.
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", models.NewStorageError("mkdir", dir, err)
	}
	return dir, nil
}

// SessionExists сообщает, есть ли на диске каталог сессии.
func (s *Store) SessionExists(id string) (bool, error) {
	dir := s.SessionDir(id)
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, models.NewStorageError("stat", dir, err)
	}
	return info.IsDir(), nil
}

// ListChunkIndices возвращает индексы сохранённых частей по возрастанию.
// Отсутствующий каталог — это пустая сессия, а не ошибка.
func (s *Store) ListChunkIndices(id string) ([]int, error) {
	dir := s.SessionDir(id)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, models.NewStorageError("readdir", dir, err)
	}

	indices := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := parseIndex(e.Name())
		if !ok {
			s.log.Debug().Str("session", id).Str("entry", e.Name()).Msg("skipping foreign file in session dir")
			continue
		}
		indices = append(indices, idx)
	}

	// Сравниваем индексы как числа: "10" идёт после "9".
	slices.Sort(indices)
	return indices, nil
}

// DeleteChunk удаляет одну часть. Уже отсутствующая часть ошибкой не считается.
func (s *Store) DeleteChunk(id string, index int) error {
	path := s.ChunkPath(id, index)
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug().Str("session", id).Int("index", index).Msg("chunk already removed")
		return nil
	}
	return models.NewStorageError("remove", path, err)
}

// DeleteSession рекурсивно удаляет каталог сессии.
func (s *Store) DeleteSession(id string) error {
	dir := s.SessionDir(id)
	// RemoveAll возвращает nil, если каталога уже нет.
	return models.NewStorageError("remove", dir, os.RemoveAll(dir))
}

// Sessions перечисляет каталоги сессий, пропуская служебные.
func (s *Store) Sessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, models.NewStorageError("readdir", s.root, err)
	}

	out := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || e.Name() == stagingDirName {
			continue
		}
		if models.ValidateSessionID(e.Name()) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Каталог мог исчезнуть между ReadDir и Info.
			continue
		}
		out = append(out, SessionInfo{ID: e.Name(), ModTime: info.ModTime()})
	}

	return out, nil
}

// parseIndex принимает только неотрицательные десятичные числа.
func parseIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return idx, true
}
