package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, Detail{Detail: msg})
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, Detail{Detail: "Authentication required."})
}

// Forbidden writes a 403 error response.
func Forbidden(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusForbidden, Detail{Detail: msg})
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusNotFound, Detail{Detail: msg})
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusConflict, Detail{Detail: msg})
}

// ServerError writes a 500 error response.
func ServerError(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusInternalServerError, Detail{Detail: msg})
}
