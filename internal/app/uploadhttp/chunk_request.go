package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

const maxFieldBytes = 4 << 10

// chunkRequest содержит разобранные поля multipart-запроса и принятые данные части.
type chunkRequest struct {
	sessionID string
	index     int
	fileName  string
	payload   *chunkstore.Staged
}

// readChunkRequest потоково разбирает multipart-тело. Файл части пишется во временный
// файл сразу, поэтому порядок полей в форме не важен. При ошибке временный файл удаляется.
func (a *Server) readChunkRequest(r *http.Request) (*chunkRequest, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedRequest, err)
	}

	req := &chunkRequest{}
	var rawIndex string
	fail := func(err error) (*chunkRequest, error) {
		_ = req.payload.Discard()
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("%w: %w", models.ErrMalformedRequest, err))
		}

		switch part.FormName() {
		case uploadproto.FieldFile:
			if req.payload != nil {
				_ = part.Close()
				return fail(fmt.Errorf("%w: duplicate %q part", models.ErrMalformedRequest, uploadproto.FieldFile))
			}
			req.payload, err = a.stager.Stage(part)
		case uploadproto.FieldHash:
			req.sessionID, err = readField(part)
		case uploadproto.FieldChunkIndex:
			rawIndex, err = readField(part)
		case uploadproto.FieldFileName:
			req.fileName, err = readField(part)
		}
		_ = part.Close()
		if err != nil {
			return fail(err)
		}
	}

	// Отсутствие файла отклонит AdmitChunk: эта ошибка важнее ошибки индекса.
	if req.payload == nil {
		return req, nil
	}
	if req.index, err = parseChunkIndex(rawIndex); err != nil {
		return fail(err)
	}

	return req, nil
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrMalformedRequest, err)
	}
	if len(b) > maxFieldBytes {
		return "", fmt.Errorf("%w: field %q is too long", models.ErrMalformedRequest, part.FormName())
	}
	return strings.TrimSpace(string(b)), nil
}

// parseChunkIndex: индекс приходит в десятичном виде, отрицательные значения запрещены.
func parseChunkIndex(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", models.ErrInvalidChunkIndex, uploadproto.FieldChunkIndex)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidChunkIndex, raw)
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: must be non-negative", models.ErrInvalidChunkIndex)
	}
	return idx, nil
}
