package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code,omitempty"`
}

// WriteError normalizes err and writes it with the matching status code.
func WriteError(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   stdErr.PublicMessage(),
		Code:    stdErr.Code,
	})
}
