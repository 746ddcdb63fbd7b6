package models

import (
	"errors"
	"fmt"
)

// Клиентские ошибки: повторять запрос без исправления входных данных бессмысленно.
var (
	ErrMissingPayload    = errors.New("chunk payload is missing")
	ErrNoChunksFound     = errors.New("no chunks found for session")
	ErrInvalidSessionID  = errors.New("invalid session id")
	ErrInvalidChunkIndex = errors.New("invalid chunk index")
	ErrInvalidFileName   = errors.New("invalid file name")
	ErrSessionBusy       = errors.New("session is busy")
	ErrMalformedRequest  = errors.New("malformed request")
)

var clientErrors = []error{
	ErrMissingPayload,
	ErrNoChunksFound,
	ErrInvalidSessionID,
	ErrInvalidChunkIndex,
	ErrInvalidFileName,
	ErrSessionBusy,
	ErrMalformedRequest,
}

// IsClientError сообщает, вызвана ли ошибка некорректным запросом клиента.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// StorageError — сбой файловой системы (права, место на диске, конкурентное изменение).
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError оборачивает ошибку ввода-вывода, сохраняя операцию и путь.
func NewStorageError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Path: path, Err: err}
}

// CleanupError — не удалось убрать временные данные после успешной сборки.
// Результат сборки при этом остаётся валидным.
type CleanupError struct {
	SessionID string
	Err       error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup of session %q failed: %v", e.SessionID, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
