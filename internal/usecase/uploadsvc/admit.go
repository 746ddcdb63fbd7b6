package uploadsvc

import (
	"context"
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// AdmitChunk закрепляет принятые данные за индексом сессии.
// Payload остаётся во владении вызывающего: при ошибке его нужно удалить через Discard.
func (s *Uploads) AdmitChunk(ctx context.Context, req AdmitRequest) error {
	if req.Payload == nil {
		return models.ErrMissingPayload
	}
	if err := models.ValidateSessionID(req.SessionID); err != nil {
		return err
	}
	if req.Index < 0 {
		return fmt.Errorf("%w: %d", models.ErrInvalidChunkIndex, req.Index)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	release, ok := s.gates.acquireShared(req.SessionID)
	if !ok {
		return fmt.Errorf("%w: merge in progress for %q", models.ErrSessionBusy, req.SessionID)
	}
	defer release()

	if err := s.Store.Claim(req.Payload, req.SessionID, req.Index); err != nil {
		s.Log.Error().Err(err).
			Str("session", req.SessionID).
			Int("index", req.Index).
			Msg("chunk admission failed")
		return fmt.Errorf("admit chunk %d: %w", req.Index, err)
	}

	s.Log.Debug().
		Str("session", req.SessionID).
		Int("index", req.Index).
		Int64("size", req.Payload.Size()).
		Str("file_name", req.FileName).
		Msg("chunk admitted")

	return nil
}
