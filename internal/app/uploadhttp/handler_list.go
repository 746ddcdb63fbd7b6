package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// listChunks отдаёт индексы принятых частей; для новой сессии — пустой массив.
func (a *Server) listChunks(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(uploadproto.QueryHash)

	indices, err := a.svc.ListChunks(r.Context(), id)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if indices == nil {
		indices = []int{}
	}

	writeJSON(w, http.StatusOK, indices)
}
