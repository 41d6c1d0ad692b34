package handlers

import (
	"net/http"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"go.uber.org/zap"
)

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, detailNotAuthenticated, nil)
	}
	return uid, ok
}

// scope authorizes action on resourceType for the caller and resolves their
// company. It writes the error response itself and reports false on failure.
func scope(w http.ResponseWriter, r *http.Request, authz Authorizer, log *zap.Logger, action gate.Action, resourceType string) (string, string, bool) {
	uid, ok := requireUser(w, r)
	if !ok {
		return "", "", false
	}
	if err := authz.Authorize(r.Context(), uid, action, resourceType, nil); err != nil {
		writeError(w, log, err)
		return "", "", false
	}
	companyID, err := authz.CompanyOf(r.Context(), uid)
	if err != nil {
		writeError(w, log, err)
		return "", "", false
	}
	return uid, companyID, true
}
