package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateSessionID(t *testing.T) {
	valid := []string{"s1", "d41d8cd98f00b204e9800998ecf8427e", "file_v2.part-1"}
	for _, id := range valid {
		require.NoError(t, ValidateSessionID(id), id)
	}

	invalid := []string{"", "..", ".incoming", "../etc", "a..b", "a/b", `a\b`, "space id", string(make([]byte, 129))}
	for _, id := range invalid {
		err := ValidateSessionID(id)
		require.ErrorIs(t, err, ErrInvalidSessionID, "%q", id)
	}
}

func TestValidateFileName(t *testing.T) {
	require.NoError(t, ValidateFileName("out.bin"))
	require.NoError(t, ValidateFileName("отчёт 2024.pdf"))

	for _, name := range []string{"", "  ", ".", "..", "../x", "dir/out.bin", `dir\out.bin`} {
		require.ErrorIs(t, ValidateFileName(name), ErrInvalidFileName, "%q", name)
	}
}

func TestIsClientError(t *testing.T) {
	require.True(t, IsClientError(fmt.Errorf("merge: %w", ErrNoChunksFound)))
	require.True(t, IsClientError(ErrSessionBusy))
	require.False(t, IsClientError(NewStorageError("rename", "/tmp/x", errors.New("boom"))))
	require.False(t, IsClientError(nil))
}

func TestStorageErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("admit: %w", NewStorageError("write", "/data/1", base))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "write", se.Op)
	require.ErrorIs(t, err, base)
	require.Nil(t, NewStorageError("write", "/x", nil))
}
