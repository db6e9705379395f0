package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"satchel/apperr"
)

const APIVersion = "v2"

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cart-API-Version", APIVersion)
	w.Header().Set("X-Cart-API-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithAppError is the single place typed errors become wire errors.
func RespondWithAppError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	RespondWithJSON(w, ae.Status, map[string]string{
		"code":    ae.Code,
		"message": ae.Message,
	})
}

func SendResponse(w http.ResponseWriter, status int, data any, message string, err error) {
	resp := map[string]any{
		"status":  status,
		"message": message,
		"data":    data,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	RespondWithJSON(w, status, resp)
}

type M map[string]interface{}

