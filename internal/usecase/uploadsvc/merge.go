package uploadsvc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sir_venger/upload_lite/internal/models"
)

const mergeBufferSize = 1 << 20

// Merge склеивает части сессии по возрастанию индекса в файл OutputDir/fileName
// и удаляет временные данные сессии.
//
// Каждая часть удаляется сразу после записи, поэтому при сбое на диске видно,
// какие части уже израсходованы. Частично записанный файл не откатывается.
func (s *Uploads) Merge(ctx context.Context, sessionID, fileName string) (models.MergeResult, error) {
	if err := models.ValidateSessionID(sessionID); err != nil {
		return models.MergeResult{}, err
	}
	if err := models.ValidateFileName(fileName); err != nil {
		return models.MergeResult{}, err
	}

	release, ok := s.gates.acquireExclusive(sessionID)
	if !ok {
		return models.MergeResult{}, fmt.Errorf("%w: %q has uploads or a merge in flight", models.ErrSessionBusy, sessionID)
	}
	defer release()

	indices, err := s.Store.ListChunkIndices(sessionID)
	if err != nil {
		return models.MergeResult{}, fmt.Errorf("merge: %w", err)
	}
	if len(indices) == 0 {
		return models.MergeResult{}, fmt.Errorf("%w: %q", models.ErrNoChunksFound, sessionID)
	}

	if err = os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return models.MergeResult{}, models.NewStorageError("mkdir", s.OutputDir, err)
	}

	log := s.Log.With().Str("session", sessionID).Str("file_name", fileName).Logger()
	log.Info().Int("chunks", len(indices)).Msg("merge started")
	// Дыра в индексах не ошибка: общее число частей неизвестно.
	if last := indices[len(indices)-1]; last != len(indices)-1 {
		log.Warn().
			Int("chunks", len(indices)).
			Int("last_index", last).
			Int("missing", last+1-len(indices)).
			Msg("chunk indices are not contiguous")
	}

	dst := filepath.Join(s.OutputDir, fileName)
	size, err := s.assemble(ctx, sessionID, indices, dst)
	if err != nil {
		log.Error().Err(err).Int64("written", size).Msg("merge failed")
		return models.MergeResult{}, fmt.Errorf("merge: %w", err)
	}

	res := models.MergeResult{
		SessionID: sessionID,
		FileName:  fileName,
		Path:      dst,
		Size:      size,
		Chunks:    len(indices),
	}

	// Файл уже закрыт и пригоден к использованию, поэтому сбой очистки только репортим.
	if err = s.Store.DeleteSession(sessionID); err != nil {
		res.CleanupErr = &models.CleanupError{SessionID: sessionID, Err: err}
		log.Warn().Err(err).Msg("session cleanup failed, directory left for GC")
	}

	log.Info().Str("path", dst).Int64("size", size).Msg("merge completed")
	return res, nil
}

// assemble пишет части в dst строго по порядку indices.
// Отменённый ctx не должен затирать уже существующий dst.
func (s *Uploads) assemble(ctx context.Context, sessionID string, indices []int, dst string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, models.NewStorageError("create", dst, err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = f.Close()
		}
	}()

	w := bufio.NewWriterSize(f, mergeBufferSize)
	var written int64
	for _, idx := range indices {
		if err = ctx.Err(); err != nil {
			return written, err
		}

		n, err := s.appendChunk(w, sessionID, idx)
		written += n
		if err != nil {
			return written, err
		}

		if err = s.Store.DeleteChunk(sessionID, idx); err != nil {
			return written, err
		}
	}

	if err = w.Flush(); err != nil {
		return written, models.NewStorageError("write", dst, err)
	}
	if err = f.Sync(); err != nil {
		return written, models.NewStorageError("sync", dst, err)
	}
	closed = true
	if err = f.Close(); err != nil {
		return written, models.NewStorageError("close", dst, err)
	}

	return written, nil
}

func (s *Uploads) appendChunk(w io.Writer, sessionID string, idx int) (int64, error) {
	path := s.Store.ChunkPath(sessionID, idx)
	src, err := os.Open(path)
	if err != nil {
		return 0, models.NewStorageError("open", path, err)
	}
	defer src.Close()

	n, err := io.Copy(w, src)
	if err != nil {
		return n, models.NewStorageError("copy", path, err)
	}

	return n, nil
}
