package models

import (
	"fmt"
	"strings"
)

const maxSessionIDLen = 128

// ValidateSessionID проверяет, что id можно безопасно использовать как имя каталога.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSessionID)
	}
	if len(id) > maxSessionIDLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidSessionID, maxSessionIDLen)
	}
	// Служебные каталоги (например, .incoming) начинаются с точки.
	if id[0] == '.' || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	for _, c := range id {
		if !isSafeRune(c) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSessionID, id, c)
		}
	}
	return nil
}

// ValidateFileName проверяет имя итогового файла: ровно один компонент пути.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidFileName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

func isSafeRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	}
	return false
}
