package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/internal/services"
	"go.uber.org/zap"
)

type RoleHandler struct {
	svc   *services.RoleService
	authz Authorizer
	log   *zap.Logger
}

func NewRoleHandler(svc *services.RoleService, authz Authorizer, log *zap.Logger) *RoleHandler {
	return &RoleHandler{svc: svc, authz: authz, log: logging.OrNop(log)}
}

// roleRequest is shared by create and update; update leaves absent fields
// unchanged.
type roleRequest struct {
	RoleName    *string              `json:"role_name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Permissions models.PermissionMap `json:"permissions,omitempty"`
}

func (req roleRequest) input() services.RoleInput {
	return services.RoleInput{Name: req.RoleName, Description: req.Description, Permissions: req.Permissions}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionList, ResourceRole)
	if !ok {
		return
	}
	roles, err := h.svc.List(r.Context(), companyID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionView, ResourceRole)
	if !ok {
		return
	}
	role, err := h.svc.Get(r.Context(), companyID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionCreate, ResourceRole)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	role, err := h.svc.Create(r.Context(), companyID, uid, req.input())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionUpdate, ResourceRole)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	role, err := h.svc.Update(r.Context(), companyID, mux.Vars(r)["id"], req.input())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionDelete, ResourceRole)
	if !ok {
		return
	}
	role, err := h.svc.Delete(r.Context(), companyID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Role '%s' deleted successfully.", role.Name)})
}
