package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/telehealthhq/telehealth-api/internal/model"
	"github.com/telehealthhq/telehealth-api/internal/repository"
	"github.com/telehealthhq/telehealth-api/internal/security"
	"github.com/telehealthhq/telehealth-api/internal/token"
)

// AuthUsecase defines the business logic for the account credential lifecycle.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*Session, error)
	VerifyAccount(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, params ResetPasswordParams) (*Session, error)
}

// RegisterParams defines the parameters for account registration.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// ResetPasswordParams defines the parameters for completing a password reset.
type ResetPasswordParams struct {
	Email       string
	Code        string
	NewPassword string
}

// Session is the result of any operation that logs the caller in: a signed
// session token, a chat token minted by the external vendor, and the account
// it belongs to.
type Session struct {
	Token     string
	ChatToken string
	Account   *model.Account
}

// Notifier delivers a message to an account's external address. Treated as a
// black-box capability; failures surface as ErrNotifyFailed.
type Notifier interface {
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
}

// ChatUser is the minimal projection registered with the chat vendor.
type ChatUser struct {
	ID   string
	Name string
	Role string
}

// ChatProvider mints chat tokens scoped to one account id.
type ChatProvider interface {
	UpsertUser(ctx context.Context, user ChatUser) error
	CreateToken(userID string) (string, error)
}

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("no account found with this email")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP has expired, please request a new one")
	ErrAlreadyVerified    = errors.New("this account is already verified")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrResetInvalid       = errors.New("invalid or expired password reset code")
	ErrNotifyFailed       = errors.New("there was an error sending the email, please try again later")
	ErrChatUnavailable    = errors.New("failed to reach the chat service")
)

const (
	// verifyOTPTTL is how long a signup or resend verification code stays valid.
	verifyOTPTTL = 24 * time.Hour
	// resetOTPTTL is how long a password reset code stays valid.
	resetOTPTTL = 5 * time.Minute
	// externalTimeout bounds every call to the mailer and the chat vendor.
	externalTimeout = 10 * time.Second

	// ChatRoleUser is the least-privileged chat role; every account is
	// registered with it.
	ChatRoleUser = "user"
)

type authUsecase struct {
	accounts repository.AccountRepository
	notifier Notifier
	chat     ChatProvider
	tokens   token.Issuer
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	accounts repository.AccountRepository,
	notifier Notifier,
	chat ChatProvider,
	tokens token.Issuer,
) AuthUsecase {
	return &authUsecase{
		accounts: accounts,
		notifier: notifier,
		chat:     chat,
		tokens:   tokens,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	code, err := security.GenerateOTP(security.OTPLength)
	if err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	account, err := u.accounts.CreateAccount(ctx, &model.Account{
		Username:     params.Username,
		Email:        strings.ToLower(params.Email),
		PasswordHash: passwordHash,
		OTP:          code,
		OTPExpiresAt: time.Now().Add(verifyOTPTTL),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	if err := u.sendOTPEmail(ctx, account.Email, "OTP for email verification", code); err != nil {
		// Compensating rollback: an account nobody was told about must not
		// linger; the caller retries the whole signup.
		_, _ = u.accounts.DeleteAccount(ctx, account.ID.Hex())
		return nil, ErrNotifyFailed
	}

	return u.createSession(ctx, account)
}

func (u *authUsecase) VerifyAccount(ctx context.Context, email, code string) error {
	account, err := u.accounts.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}

		return err
	}

	if account.OTP == "" || account.OTP != code {
		return ErrInvalidOTP
	}

	if time.Now().After(account.OTPExpiresAt) {
		return ErrOTPExpired
	}

	verified := true
	if _, err := u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
		Verified: &verified,
		ClearOTP: true,
	}); err != nil {
		return err
	}

	return nil
}

func (u *authUsecase) ResendOTP(ctx context.Context, email string) error {
	account, err := u.accounts.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}

		return err
	}

	if account.Verified {
		return ErrAlreadyVerified
	}

	code, err := security.GenerateOTP(security.OTPLength)
	if err != nil {
		return err
	}

	if _, err := u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
		OTP: &model.Challenge{Code: code, ExpiresAt: time.Now().Add(verifyOTPTTL)},
	}); err != nil {
		return err
	}

	if err := u.sendOTPEmail(ctx, account.Email, "Resend OTP for email verification", code); err != nil {
		// Not a full rollback: the account survives, only the undelivered
		// challenge is withdrawn.
		_, _ = u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
			ClearOTP: true,
		})
		return ErrNotifyFailed
	}

	return nil
}

func (u *authUsecase) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := u.accounts.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Same failure for unknown email and wrong password so callers
			// cannot probe which emails are registered.
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	return u.createSession(ctx, account)
}

func (u *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	account, err := u.accounts.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}

		return err
	}

	code, err := security.GenerateOTP(security.OTPLength)
	if err != nil {
		return err
	}

	if _, err := u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
		ResetOTP: &model.Challenge{Code: code, ExpiresAt: time.Now().Add(resetOTPTTL)},
	}); err != nil {
		return err
	}

	subject := fmt.Sprintf("Your password reset OTP (valid for %s)", resetOTPTTL)
	if err := u.sendOTPEmail(ctx, account.Email, subject, code); err != nil {
		_, _ = u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
			ClearResetOTP: true,
		})
		return ErrNotifyFailed
	}

	return nil
}

func (u *authUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) (*Session, error) {
	// One predicate, not sequential checks: email, code and freshness must
	// all hold on the same document.
	account, err := u.accounts.GetAccountForReset(ctx, strings.ToLower(params.Email), params.Code, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResetInvalid
		}

		return nil, err
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return nil, err
	}

	account, err = u.accounts.UpdateAccount(ctx, account.ID.Hex(), repository.UpdateAccountParams{
		PasswordHash:  &passwordHash,
		ClearResetOTP: true,
	})
	if err != nil {
		return nil, err
	}

	// A successful reset doubles as a login.
	return u.createSession(ctx, account)
}

// createSession registers the account with the chat vendor, mints a chat
// token and signs a session token.
func (u *authUsecase) createSession(ctx context.Context, account *model.Account) (*Session, error) {
	chatCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	if err := u.chat.UpsertUser(chatCtx, ChatUser{
		ID:   account.ID.Hex(),
		Name: account.Username,
		Role: ChatRoleUser,
	}); err != nil {
		return nil, ErrChatUnavailable
	}

	chatToken, err := u.chat.CreateToken(account.ID.Hex())
	if err != nil {
		return nil, ErrChatUnavailable
	}

	sessionToken, err := u.tokens.Issue(account.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     sessionToken,
		ChatToken: chatToken,
		Account:   account,
	}, nil
}

func (u *authUsecase) sendOTPEmail(ctx context.Context, to, subject, code string) error {
	sendCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	htmlBody := fmt.Sprintf("<h1>Your OTP is: %s</h1>", code)

	return u.notifier.SendHTML(sendCtx, to, subject, htmlBody)
}
