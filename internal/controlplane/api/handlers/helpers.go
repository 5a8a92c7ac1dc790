package handlers

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes bounds request bodies; mount declarations are small.
const maxBodyBytes = 64 << 10

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Unknown fields and oversized bodies are rejected. Returns true if
// successful, false if decoding fails (error response is written
// automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
