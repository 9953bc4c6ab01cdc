package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account represents a user account in the authentication system.
// The verification OTP and the password-reset OTP carry independent lifecycles:
// each code is stored together with its expiry and the pair is always set or
// cleared as a unit.
type Account struct {
	ID                bson.ObjectID `bson:"_id,omitempty"`
	Username          string        `bson:"username"`
	Email             string        `bson:"email"`
	PasswordHash      string        `bson:"password_hash"`
	Verified          bool          `bson:"verified"`
	OTP               string        `bson:"otp,omitempty"`
	OTPExpiresAt      time.Time     `bson:"otp_expires_at,omitempty"`
	ResetOTP          string        `bson:"reset_otp,omitempty"`
	ResetOTPExpiresAt time.Time     `bson:"reset_otp_expires_at,omitempty"`
	CreatedAt         time.Time     `bson:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at"`
}

// Challenge is a one-time code and the moment it stops being accepted.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}
