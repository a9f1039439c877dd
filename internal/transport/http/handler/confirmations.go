package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sms-confirm-api/internal/application/confirmation"
	"github.com/sms-confirm-api/internal/domain"
	"github.com/sms-confirm-api/internal/pkg/validate"
)

// ConfirmationHandler exposes the confirmation engine over HTTP.
type ConfirmationHandler struct {
	svc            confirmation.Service
	defaultMessage string
}

func NewConfirmationHandler(svc confirmation.Service, defaultMessage string) *ConfirmationHandler {
	return &ConfirmationHandler{svc: svc, defaultMessage: defaultMessage}
}

type requestCodeBody struct {
	Identifier string `json:"identifier" validate:"required"`
	Message    string `json:"message"`
}

type verifyCodeBody struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code" validate:"required"`
}

// Request issues and dispatches a fresh code for the identifier.
func (h *ConfirmationHandler) Request(w http.ResponseWriter, r *http.Request) {
	var body requestCodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	message := body.Message
	if message == "" {
		message = h.defaultMessage
	}
	code, err := h.svc.RequestCode(r.Context(), body.Identifier, message)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CodeEnvelope{Identifier: body.Identifier, Code: code})
}

// Verify checks a submitted code. A mismatch is a normal "fail" result, not an error.
func (h *ConfirmationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, ok, err := h.svc.VerifyCode(r.Context(), body.Identifier, body.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, VerifyEnvelope{Result: "fail"})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Result: "ok", Hash: hash})
}

// Resolve looks a confirmed record up by its verification hash.
func (h *ConfirmationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ResolveByHash(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmationEnvelope{Confirmation: c})
}

// List returns all live records in the tenant.
func (h *ConfirmationHandler) List(w http.ResponseWriter, r *http.Request) {
	records := []domain.Confirmation{}
	for c, err := range h.svc.List(r.Context()) {
		if err != nil {
			httpError(w, err)
			return
		}
		records = append(records, c)
	}
	writeJSON(w, http.StatusOK, ConfirmationsEnvelope{Count: len(records), Data: records})
}

// Delete removes a record and returns what was stored.
func (h *ConfirmationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Delete(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmationEnvelope{Confirmation: c})
}
