package handlers

import (
	"net/http"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/internal/services"
	"go.uber.org/zap"
)

// AuthHandler serves /api/v1/auth.
type AuthHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logging.OrNop(log)}
}

func tokenResponse(pair auth.TokenPair, user *models.User) authapi.TokenResponse {
	return authapi.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		UserID:       user.ID,
		Email:        user.Email,
	}
}

func (h *AuthHandler) SignupInitiate(w http.ResponseWriter, r *http.Request) {
	var req authapi.SignupInitiateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	err := h.svc.InitiateSignup(r.Context(), services.SignupInput{
		CompanyName:    req.Company.Name,
		CompanyType:    req.Company.Type,
		CompanyEmail:   req.Company.Email,
		CompanyAddress: req.Company.Address,
		CompanyTaxID:   req.Company.TaxID,
		FullName:       req.User.FullName,
		Email:          req.User.Email,
		PhoneNumber:    req.User.PhoneNumber,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, authapi.MessageResponse{Message: "Sign up initiated. Please check your email for the OTP."})
}

func (h *AuthHandler) SignupVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.OTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	user, err := h.svc.VerifySignupOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.VerifyOTPResponse{
		Message: "Email verified successfully.",
		UserID:  user.ID,
		Email:   user.Email,
	})
}

func (h *AuthHandler) SignupSetPassword(w http.ResponseWriter, r *http.Request) {
	var req authapi.Credentials
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pair, user, err := h.svc.SetSignupPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(pair, user))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req authapi.Credentials
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pair, user, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(pair, user))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req authapi.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pair, user, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(pair, user))
}

// ForgotPasswordInitiate answers the same way whether or not the account
// exists.
func (h *AuthHandler) ForgotPasswordInitiate(w http.ResponseWriter, r *http.Request) {
	var req authapi.EmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.svc.ForgotPasswordInitiate(r.Context(), req.Email); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.MessageResponse{
		Message: "If an account with this email exists, a password reset OTP has been sent.",
	})
}

func (h *AuthHandler) ForgotPasswordVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.OTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.svc.ForgotPasswordVerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.ResetVerifyResponse{
		Message: "OTP verified. You can now set a new password.",
		Email:   req.Email,
		OTP:     req.OTP,
	})
}

func (h *AuthHandler) ForgotPasswordSetNew(w http.ResponseWriter, r *http.Request) {
	var req authapi.ResetSetNewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.svc.ForgotPasswordSetNew(r.Context(), req.Email, req.OTP, req.Password); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.MessageResponse{Message: "Password has been reset successfully."})
}

func (h *AuthHandler) VerifyInviteCode(w http.ResponseWriter, r *http.Request) {
	var req authapi.InviteCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	inv, err := h.svc.VerifyInvite(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.InviteVerifyResponse{
		Message: "Invite code verified.",
		Email:   inv.Email,
		Code:    inv.Code,
	})
}

func (h *AuthHandler) InvitedUserSetPassword(w http.ResponseWriter, r *http.Request) {
	var req authapi.InviteSetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pair, user, err := h.svc.AcceptInvite(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(pair, user))
}

// Me requires the bearer middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, detailNotAuthenticated, nil)
		return
	}
	user, err := h.svc.Me(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authapi.MeResponse{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CompanyID: user.CompanyIDValue(),
	})
}
