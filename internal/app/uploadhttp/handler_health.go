package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// alive — простейшая проверка живости.
func (a *Server) alive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// health возвращает агрегированную статистику по каталогу частей.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	u, err := a.svc.Stats()
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.HealthResponse{
		OK:          true,
		Sessions:    u.Sessions,
		Chunks:      u.Chunks,
		StoredBytes: u.StoredBytes,
		StagedBytes: u.StagedBytes,
	})
}
