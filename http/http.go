// Package http wires the payment gateway into net/http servers and the
// autonomous payer into net/http clients. Framework-specific adapters live
// in the gin and echo subpackages.
package http

import (
	"encoding/json"
	"net/http"
)

const (
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(headerContentType, mimeApplicationJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
