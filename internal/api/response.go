package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Detail is the standard error body: a single human-readable message.
type Detail struct {
	Detail string `json:"detail"`
}

// WriteJSON serialises resp as JSON and writes it to w with the given HTTP
// status code.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("WriteJSON: failed to encode response: %v", err)
	}
}
