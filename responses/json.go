package responses

import (
	"encoding/json"
	"log"
	"net/http"
)

// EncodeWriteJSON marshals payload before any header is sent.
// An unencodable payload is answered with a 500 error Message.
func EncodeWriteJSON(w http.ResponseWriter, HTTPStatusCode int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ERROR] encoding JSON response (%T): %v", payload, err)
		HTTPStatusCode = http.StatusInternalServerError
		body, _ = json.Marshal(Message{Type: "error", Message: "internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(HTTPStatusCode) // Response Header Sent & Frozen
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		log.Printf("[ERROR] Writing JSON to Response: %v", err)
	}
}

// WriteSimpleErrorJSON wraps msg into an error Message
func WriteSimpleErrorJSON(w http.ResponseWriter, HTTPStatusCode int, msg string) {
	EncodeWriteJSON(w, HTTPStatusCode, Message{Type: "error", Message: msg})
}
