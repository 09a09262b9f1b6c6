package middleware

import (
	"encoding/json"
	"net/http"

	"aternotes/internal/service"
)

type successEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type errorEnvelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Code    service.Code `json:"code"`
}

// WriteJSON writes data inside a success envelope.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, successEnvelope{Status: "success", Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code service.Code, message string) {
	writeEnvelope(w, r, status, errorEnvelope{Status: "error", Message: message, Code: code})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if IsPretty(r.Context()) {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(body)
}
