package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"familybudget/internal/logger"
	"familybudget/internal/service"
	"familybudget/internal/validation"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// responder writes JSON bodies and the error envelope
type responder struct {
	log     *logger.Logger
	devMode bool
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondWithError logs err (if any) and writes {message, error}. The
// error detail is only exposed for 5xx in development mode.
func (rs responder) respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg, logMsg string, err error) {
	body := errorResponse{Message: userMsg}

	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		kv := []any{"status", status, "error", err}
		if r != nil {
			kv = append(kv, "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)
		}
		if status >= http.StatusInternalServerError {
			rs.log.Error(logMsg, kv...)
			if rs.devMode {
				body.Error = err.Error()
			}
		} else {
			rs.log.Debug(logMsg, kv...)
		}
	}

	respondJSON(w, status, body)
}

// respondServiceError maps a service error onto its HTTP status
func (rs responder) respondServiceError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	status, msg := statusFor(err)
	rs.respondWithError(w, r, status, msg, logMsg, err)
}

// statusFor classifies err into a status code and a client-safe message
func statusFor(err error) (int, string) {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrDuplicateName):
		return http.StatusBadRequest, MsgDuplicateName
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized, MsgUnauthorized
	case errors.Is(err, service.ErrFamilyNotFound):
		return http.StatusNotFound, MsgFamilyNotFound
	case errors.Is(err, service.ErrMemberNotFound):
		return http.StatusNotFound, MsgMemberNotFound
	case errors.Is(err, service.ErrTokenIssuance):
		return http.StatusInternalServerError, MsgTokenIssuanceFailure
	default:
		return http.StatusInternalServerError, MsgInternalServerError
	}
}
