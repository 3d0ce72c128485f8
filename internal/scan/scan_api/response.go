package scan_api

import (
	"encoding/json"
	"net/http"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan"
)

// Responder renders the uniform response envelope: JSON content type on
// every reply, the configured CORS origin when the deployment serves
// browser clients, 200 for success and the error's status otherwise.
type Responder struct {
	AllowedOrigins string
}

func (r *Responder) setHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if r.AllowedOrigins != "" {
		w.Header().Set("Access-Control-Allow-Origin", r.AllowedOrigins)
	}
}

// Success writes a 200 with the JSON-encoded payload. Payloads carry
// int64 and json.Number values, so integer counters serialize without
// floating-point drift.
func (r *Responder) Success(w http.ResponseWriter, payload interface{}) {
	r.setHeaders(w)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// Err writes the failure as a flat message string, the shape scanner
// clients already parse. Business and input errors are 400; store
// outages are 503.
func (r *Responder) Err(w http.ResponseWriter, err error) {
	r.setHeaders(w)

	status := http.StatusBadRequest
	if scanErr, ok := err.(*scan.Error); ok {
		status = scanErr.Status()
	}

	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}
