package utils

import (
	"encoding/json"
	"net/http"

	"taskmarket/store"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError maps a business error onto the response envelope. Unexpected
// errors collapse to an opaque 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	se := store.AsError(err)
	WriteJSON(w, se.Status, APIResponse{Success: false, Message: se.Message, Code: se.Code})
}

// GetStringValue returns the value of a nullable string pointer or empty string if nil
func GetStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
