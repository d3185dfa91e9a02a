package commons

import (
	"encoding/json"
	"net/http"

	"github.com/Lutefd/currency-data/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	if code > 499 {
		logger.Errorf("responding with %d error: %s", code, msg)
	}
	RespondWithJSON(w, code, errorResponse{
		Error: msg,
	})
}

func RespondWithMessage(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, messageResponse{
		Message: msg,
	})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	dat, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("error marshalling JSON: %s", err)
		w.WriteHeader(500)
		return
	}
	w.WriteHeader(code)
	w.Write(dat)
}
