package httperrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// StatusClientClosedRequest — клиент закрыл соединение до ответа (nginx-совместимый код).
const StatusClientClosedRequest = 499

// Status подбирает HTTP-статус по виду ошибки.
func Status(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrSessionBusy):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case models.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку клиенту в формате {"success":false,"error":"..."}.
func Write(w http.ResponseWriter, err error) {
	WriteStatus(w, Status(err), err.Error())
}

// WriteStatus пишет JSON-ошибку с явным статусом.
func WriteStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadproto.ErrorResponse{
		Success: false,
		Error:   msg,
	})
}
