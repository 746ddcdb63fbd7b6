package uploadsvc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/models"
)

type (
	// ChunkStore — дисковое хранилище частей, разложенных по каталогам сессий.
	ChunkStore interface {
		ListChunkIndices(id string) ([]int, error)
		ChunkPath(id string, index int) string
		Claim(st *chunkstore.Staged, id string, index int) error
		DeleteChunk(id string, index int) error
		DeleteSession(id string) error
		Sessions() ([]chunkstore.SessionInfo, error)
		SweepStaging(ttl time.Duration) (int, error)
		Usage() (chunkstore.Usage, error)
	}

	// Service объединяет приём частей, учёт сессий и сборку итогового файла.
	Service interface {
		ListChunks(ctx context.Context, sessionID string) ([]int, error)
		AdmitChunk(ctx context.Context, req AdmitRequest) error
		Merge(ctx context.Context, sessionID, fileName string) (models.MergeResult, error)
		SweepStale(ctx context.Context, ttl time.Duration) (SweepReport, error)
		Stats() (chunkstore.Usage, error)
	}
)

// AdmitRequest — одна входящая часть, уже полностью принятая транспортом.
type AdmitRequest struct {
	SessionID string
	Index     int
	Payload   *chunkstore.Staged
	// FileName носит справочный характер и не влияет на путь хранения.
	FileName string
}

type Deps struct {
	Store     ChunkStore
	OutputDir string
	Log       zerolog.Logger
}

type Uploads struct {
	Deps
	gates *gates
}

// New конструирует сервис загрузок с заданными зависимостями.
func New(deps Deps) *Uploads {
	return &Uploads{
		Deps:  deps,
		gates: newGates(),
	}
}

var _ Service = (*Uploads)(nil)

// Stats возвращает статистику хранилища для health-check'ов.
func (s *Uploads) Stats() (chunkstore.Usage, error) {
	return s.Store.Usage()
}
