package handler

// Request payloads. Validation rules live in the `validate` tags and are
// enforced before any usecase runs.

type SignupRequest struct {
	Username        string `json:"username"        validate:"required,min=3,max=30"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"           validate:"required,email"`
	OTP             string `json:"otp"             validate:"required"`
	Password        string `json:"password"        validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type ChatTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name"`
}
