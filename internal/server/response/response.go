// Package response defines the JSON envelope shared by every endpoint:
// {"message": ..., "data": ..., "errorCode": ...} for success and
// recoverable failure alike.
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope is the wire shape of every response body. Data is null unless the
// endpoint has a payload; ErrorCode is empty on success.
type Envelope struct {
	Message   string `json:"message"`
	Data      any    `json:"data"`
	ErrorCode string `json:"errorCode"`
}

// Write serializes an envelope with the given status code.
func Write(w http.ResponseWriter, status int, message string, data any, errorCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Message: message, Data: data, ErrorCode: errorCode}); err != nil {
		log.Printf("response: encode: %v", err)
	}
}

// OK writes a 200 envelope with no error code.
func OK(w http.ResponseWriter, message string, data any) {
	Write(w, http.StatusOK, message, data, "")
}

// Error writes a failure envelope with data null.
func Error(w http.ResponseWriter, status int, message, errorCode string) {
	Write(w, status, message, nil, errorCode)
}

// Internal writes the generic 500 envelope. Used for unexpected failures so
// internals never leak to the client.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error", "INTERNAL")
}
