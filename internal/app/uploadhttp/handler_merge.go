package uploadhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// merge склеивает части сессии в итоговый файл.
func (a *Server) merge(w http.ResponseWriter, r *http.Request) {
	var req uploadproto.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrMalformedRequest, err))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrMalformedRequest, err))
		return
	}

	// Сборка расходует части по одной; обрыв соединения не должен прерывать её на середине.
	ctx := context.WithoutCancel(r.Context())
	res, err := a.svc.Merge(ctx, req.Hash, req.FileName)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	resp := uploadproto.MergeResponse{
		Success:  true,
		FilePath: res.Path,
		Status:   "ok",
		Message:  "file merged",
		Size:     res.Size,
		Chunks:   res.Chunks,
	}
	if res.CleanupErr != nil {
		resp.Warning = res.CleanupErr.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}
