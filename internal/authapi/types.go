package authapi

// Request and response bodies of the auth API. Field names are snake_case on
// the wire.

type Company struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

type User struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"user_phone_number,omitempty"`
}

type SignupInitiateRequest struct {
	Company Company `json:"company"`
	User    User    `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

// Credentials is the body of sign-in and sign-up set-password.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

type ResetVerifyResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	OTP     string `json:"otp"`
}

type ResetSetNewRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

type InviteCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type InviteVerifyResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Code    string `json:"code"`
}

type InviteSetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

// CreateInviteRequest invites a colleague. Without RoleID the new user gets
// the company's Member role.
type CreateInviteRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	RoleID   string `json:"role_id,omitempty"`
}

type InviteResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Code    string `json:"code"`
	RoleID  string `json:"role_id,omitempty"`
}
