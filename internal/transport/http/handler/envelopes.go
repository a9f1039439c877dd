package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sms-confirm-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CodeEnvelope wraps a successful code request.
type CodeEnvelope struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

// VerifyEnvelope wraps a verification attempt. Result is "ok" or the literal
// "fail"; Hash is the proof token on success.
type VerifyEnvelope struct {
	Result string `json:"result"`
	Hash   string `json:"hash,omitempty"`
}

// ConfirmationEnvelope wraps a single record.
type ConfirmationEnvelope struct {
	Confirmation *domain.Confirmation `json:"confirmation"`
}

// ConfirmationsEnvelope wraps a record listing.
type ConfirmationsEnvelope struct {
	Count int                   `json:"count"`
	Data  []domain.Confirmation `json:"data"`
}

// DeliveriesEnvelope wraps a delivery-receipt listing.
type DeliveriesEnvelope struct {
	Count int               `json:"count"`
	Data  []domain.Delivery `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
