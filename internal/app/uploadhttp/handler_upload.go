package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// uploadChunk принимает одну часть и закрепляет её за индексом сессии.
func (a *Server) uploadChunk(w http.ResponseWriter, r *http.Request) {
	if a.maxChunkBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxChunkBytes)
	}

	req, err := a.readChunkRequest(r)
	if err != nil {
		a.log.Warn().Err(err).Msg("chunk upload rejected")
		httperrors.Write(w, err)
		return
	}
	// После успешного AdmitChunk Discard ничего не делает.
	defer req.payload.Discard()

	err = a.svc.AdmitChunk(r.Context(), uploadsvc.AdmitRequest{
		SessionID: req.sessionID,
		Index:     req.index,
		Payload:   req.payload,
		FileName:  req.fileName,
	})
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.UploadResponse{Success: true})
}
