package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse — единый формат тела ошибки.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отдает клиенту JSON с сообщением. Для 500 сообщение всегда
// обобщенное: детали остаются в серверных логах.
func writeError(log *slog.Logger, w http.ResponseWriter, status int, msg string) {
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(log, w, status, ErrorResponse{Error: msg})
}
