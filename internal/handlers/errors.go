package handlers

import (
	"errors"
	"net/http"

	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/services"
	"go.uber.org/zap"
)

// Error details clients show verbatim.
const (
	detailInvalidBody      = "Invalid request body."
	detailValidation       = "Please correct the errors in the form."
	detailUserExists       = "User with this email already exists and is confirmed."
	detailInvalidOTP       = "Invalid or expired OTP."
	detailInvalidLogin     = "Invalid login credentials."
	detailPasswordNotSet   = "Email not verified or password already set."
	detailInvalidInvite    = "Invalid or expired invite code."
	detailInvalidToken     = "Invalid or expired token."
	detailNoCompany        = "User is not attached to a company."
	detailNotFound         = "Not found."
	detailForbidden        = "You are not allowed to perform this action."
	detailInternal         = "Internal server error."
	detailNotAuthenticated = "Not authenticated"
	detailRoleExists       = "A role with this name already exists for your company."
	detailProtectedRole    = "The Super Admin role cannot be changed or deleted."
	detailProtectedUser    = "Cannot deactivate a Super Admin or remove their Super Admin role."
	detailNoUpdate         = "No update data provided."
	detailProductExists    = "A product with this SKU already exists."
)

// writeError maps service errors to status codes and a detail message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		detail := ve.Violations.First()
		if detail == "" {
			detail = detailValidation
		}
		httpx.JSONError(w, http.StatusUnprocessableEntity, detail, ve.Violations)
	case errors.Is(err, httpx.ErrInvalidJSON):
		httpx.JSONError(w, http.StatusBadRequest, detailInvalidBody, nil)
	case errors.Is(err, services.ErrUserExists):
		httpx.JSONError(w, http.StatusConflict, detailUserExists, nil)
	case errors.Is(err, services.ErrInvalidOTP):
		httpx.JSONError(w, http.StatusBadRequest, detailInvalidOTP, nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, detailInvalidLogin, nil)
	case errors.Is(err, services.ErrPasswordNotAllowed):
		httpx.JSONError(w, http.StatusBadRequest, detailPasswordNotSet, nil)
	case errors.Is(err, services.ErrInvalidInvite):
		httpx.JSONError(w, http.StatusBadRequest, detailInvalidInvite, nil)
	case errors.Is(err, services.ErrInvalidToken):
		httpx.JSONError(w, http.StatusUnauthorized, detailInvalidToken, nil)
	case errors.Is(err, services.ErrNoCompany):
		httpx.JSONError(w, http.StatusForbidden, detailNoCompany, nil)
	case errors.Is(err, services.ErrRoleExists):
		httpx.JSONError(w, http.StatusConflict, detailRoleExists, nil)
	case errors.Is(err, services.ErrProductExists):
		httpx.JSONError(w, http.StatusConflict, detailProductExists, nil)
	case errors.Is(err, services.ErrProtectedRole):
		httpx.JSONError(w, http.StatusForbidden, detailProtectedRole, nil)
	case errors.Is(err, services.ErrProtectedUser):
		httpx.JSONError(w, http.StatusForbidden, detailProtectedUser, nil)
	case errors.Is(err, services.ErrNoUpdate):
		httpx.JSONError(w, http.StatusBadRequest, detailNoUpdate, nil)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, detailNotFound, nil)
	case errors.Is(err, gate.ErrUnauthorized), errors.Is(err, gate.ErrNoPolicyDefined):
		httpx.JSONError(w, http.StatusForbidden, detailForbidden, nil)
	default:
		log.Error("request failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, detailInternal, nil)
	}
}
