package uploadsvc

import (
	"context"
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// ListChunks возвращает индексы уже сохранённых частей сессии.
// Для неизвестной сессии это пустой список: клиент начинает загрузку с нуля.
func (s *Uploads) ListChunks(ctx context.Context, sessionID string) ([]int, error) {
	if err := models.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indices, err := s.Store.ListChunkIndices(sessionID)
	if err != nil {
		s.Log.Error().Err(err).Str("session", sessionID).Msg("list chunks failed")
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	return indices, nil
}
