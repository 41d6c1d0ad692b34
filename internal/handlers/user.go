package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/services"
	"go.uber.org/zap"
)

// UserHandler serves invitations and the management of a company's users.
type UserHandler struct {
	svc     *services.AuthService
	members *services.MemberService
	authz   Authorizer
	log     *zap.Logger
}

func NewUserHandler(svc *services.AuthService, members *services.MemberService, authz Authorizer, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, members: members, authz: authz, log: logging.OrNop(log)}
}

type roleRef struct {
	ID       string `json:"id"`
	RoleName string `json:"role_name"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	IsActive    bool      `json:"is_active"`
	CompanyID   string    `json:"company_id"`
	CreatedAt   time.Time `json:"created_at"`
	Roles       []roleRef `json:"roles"`
}

func newUserResponse(m *services.Member) userResponse {
	roles := make([]roleRef, len(m.Roles))
	for i, r := range m.Roles {
		roles[i] = roleRef{ID: r.ID, RoleName: r.Name}
	}
	return userResponse{
		ID:          m.User.ID,
		Email:       m.User.Email,
		FullName:    m.User.FullName,
		PhoneNumber: m.User.PhoneNumber,
		IsActive:    m.User.IsActive,
		CompanyID:   m.User.CompanyIDValue(),
		CreatedAt:   m.User.CreatedAt,
		Roles:       roles,
	}
}

type userListResponse struct {
	Items []userResponse `json:"items"`
	Total int            `json:"total"`
}

// userUpdateRequest leaves absent fields unchanged. role_ids replaces every
// assignment.
type userUpdateRequest struct {
	RoleIDs  *[]string `json:"role_ids,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// Invite creates an invitation into the caller's company.
func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := scope(w, r, h.authz, h.log, gate.ActionInvite, ResourceUser)
	if !ok {
		return
	}
	var req authapi.CreateInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	inv, err := h.svc.CreateInvitation(r.Context(), uid, req.Email, req.FullName, req.RoleID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	resp := authapi.InviteResponse{
		Message: "Invitation sent.",
		Email:   inv.Email,
		Code:    inv.Code,
	}
	if inv.RoleID != nil {
		resp.RoleID = *inv.RoleID
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionList, ResourceUser)
	if !ok {
		return
	}
	members, err := h.members.List(r.Context(), companyID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := userListResponse{Items: make([]userResponse, len(members)), Total: len(members)}
	for i := range members {
		out.Items[i] = newUserResponse(&members[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get answers 404 for users of other companies.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionView, ResourceUser)
	if !ok {
		return
	}
	m, err := h.members.Get(r.Context(), companyID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(m))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionUpdate, ResourceUser)
	if !ok {
		return
	}
	var req userUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	m, err := h.members.Update(r.Context(), companyID, mux.Vars(r)["id"], services.MemberUpdate{
		RoleIDs:  req.RoleIDs,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(m))
}
