package chunkstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sir_venger/upload_lite/internal/models"
)

const (
	stagingDirName = ".incoming"
	stagedSuffix   = ".part"
)

// Staged — полностью записанные данные части, ещё не привязанные к сессии.
// Владелец обязан либо передать его в Claim, либо вызвать Discard.
type Staged struct {
	path    string
	size    int64
	claimed bool
}

// Size возвращает число записанных байт.
func (st *Staged) Size() int64 { return st.size }

// Discard удаляет временный файл. После Claim это no-op, поэтому удобно звать через defer.
func (st *Staged) Discard() error {
	if st == nil || st.claimed {
		return nil
	}
	err := os.Remove(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return models.NewStorageError("remove", st.path, err)
}

// Stage записывает r целиком во временный файл с уникальным именем.
// При ошибке временный файл удаляется.
func (s *Store) Stage(r io.Reader) (*Staged, error) {
	path := filepath.Join(s.staging, uuid.NewString()+stagedSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, models.NewStorageError("create", path, err)
	}

	src := &sourceReader{r: r}
	n, err := io.Copy(f, src)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		if src.err != nil {
			// Обрыв или битое тело запроса: виноват клиент, а не диск.
			return nil, fmt.Errorf("%w: read chunk body: %w", models.ErrMalformedRequest, src.err)
		}
		return nil, models.NewStorageError("write", path, err)
	}

	return &Staged{path: path, size: n}, nil
}

// sourceReader запоминает ошибку чтения, чтобы отличить её от ошибки записи на диск.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}

// Claim атомарно переносит данные на место части index сессии id.
// Существующая часть с тем же индексом перезаписывается.
func (s *Store) Claim(st *Staged, id string, index int) error {
	if st == nil {
		return models.ErrMissingPayload
	}
	if _, err := s.EnsureSessionDir(id); err != nil {
		return err
	}

	dst := s.ChunkPath(id, index)
	if err := os.Rename(st.path, dst); err != nil {
		return models.NewStorageError("rename", dst, err)
	}
	st.claimed = true

	return nil
}

// SweepStaging удаляет брошенные временные файлы старше ttl и возвращает их число.
func (s *Store) SweepStaging(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(s.staging)
	if err != nil {
		return 0, models.NewStorageError("readdir", s.staging, err)
	}

	now := time.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), stagedSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < ttl {
			continue
		}
		if err = os.Remove(filepath.Join(s.staging, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}
