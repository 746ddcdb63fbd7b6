package chunkstore

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Usage — агрегированная статистика по каталогу частей.
type Usage struct {
	Sessions    int
	Chunks      int
	StoredBytes int64
	StagedBytes int64
}

// Usage обходит хранилище и суммирует размеры файлов.
func (s *Store) Usage() (Usage, error) {
	var u Usage
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Сессия могла быть собрана и удалена во время обхода.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		parent := filepath.Dir(path)
		if d.IsDir() {
			if parent == s.root && path != s.staging {
				u.Sessions++
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if parent == s.staging {
			u.StagedBytes += info.Size()
			return nil
		}
		u.Chunks++
		u.StoredBytes += info.Size()

		return nil
	})
	if err != nil {
		return Usage{}, models.NewStorageError("walk", s.root, err)
	}

	return u, nil
}
