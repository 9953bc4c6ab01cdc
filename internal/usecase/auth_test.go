package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/telehealthhq/telehealth-api/internal/model"
	"github.com/telehealthhq/telehealth-api/internal/repository"
	"github.com/telehealthhq/telehealth-api/internal/security"
	"github.com/telehealthhq/telehealth-api/internal/token"
)

// ---- fakes ----

type fakeAccounts struct {
	byID    map[string]*model.Account
	deleted []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: make(map[string]*model.Account)}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

func (f *fakeAccounts) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	for _, existing := range f.byID {
		if existing.Email == account.Email {
			return nil, duplicateKeyError()
		}
	}

	account.ID = bson.NewObjectID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	f.byID[account.ID.Hex()] = account

	return account, nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, id string) (*model.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return account, nil
}

func (f *fakeAccounts) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, account := range f.byID {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAccounts) GetAccountForReset(
	_ context.Context,
	email, code string,
	now time.Time,
) (*model.Account, error) {
	for _, account := range f.byID {
		if account.Email == email && account.ResetOTP != "" &&
			account.ResetOTP == code && account.ResetOTPExpiresAt.After(now) {
			return account, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAccounts) UpdateAccount(
	_ context.Context,
	id string,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.PasswordHash != nil {
		account.PasswordHash = *params.PasswordHash
	}
	if params.Verified != nil {
		account.Verified = *params.Verified
	}
	if params.OTP != nil {
		account.OTP = params.OTP.Code
		account.OTPExpiresAt = params.OTP.ExpiresAt
	}
	if params.ClearOTP {
		account.OTP = ""
		account.OTPExpiresAt = time.Time{}
	}
	if params.ResetOTP != nil {
		account.ResetOTP = params.ResetOTP.Code
		account.ResetOTPExpiresAt = params.ResetOTP.ExpiresAt
	}
	if params.ClearResetOTP {
		account.ResetOTP = ""
		account.ResetOTPExpiresAt = time.Time{}
	}
	account.UpdatedAt = time.Now()

	return account, nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, id string) (*model.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	delete(f.byID, id)
	f.deleted = append(f.deleted, id)

	return account, nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeNotifier struct {
	sent []sentEmail
	err  error
}

func (f *fakeNotifier) SendHTML(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeChat struct {
	upserted  []ChatUser
	upsertErr error
	tokenErr  error
}

func (f *fakeChat) UpsertUser(_ context.Context, user ChatUser) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, user)
	return nil
}

func (f *fakeChat) CreateToken(userID string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "chat-token-" + userID, nil
}

type testEnv struct {
	auth     AuthUsecase
	accounts *fakeAccounts
	notifier *fakeNotifier
	chat     *fakeChat
}

func newTestEnv() *testEnv {
	accounts := newFakeAccounts()
	notifier := &fakeNotifier{}
	chat := &fakeChat{}
	issuer := token.NewIssuer("test-secret", "telehealth-api", time.Hour)

	return &testEnv{
		auth:     NewAuthUsecase(accounts, notifier, chat, issuer),
		accounts: accounts,
		notifier: notifier,
		chat:     chat,
	}
}

func register(t *testing.T, env *testEnv, email string) *model.Account {
	t.Helper()

	_, err := env.auth.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    email,
		Password: "pw123456",
	})
	require.NoError(t, err)

	account, err := env.accounts.GetAccountByEmail(context.Background(), email)
	require.NoError(t, err)

	return account
}

// ---- Register ----

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	env := newTestEnv()

	session, err := env.auth.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "A@X.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.ChatToken)
	assert.Equal(t, "alice", session.Account.Username)

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, account.Verified)
	assert.Len(t, account.OTP, security.OTPLength)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), account.OTPExpiresAt, time.Minute)

	ok, err := security.VerifyPassword("pw123456", account.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, "a@x.com", env.notifier.sent[0].to)
	assert.Contains(t, env.notifier.sent[0].body, account.OTP)

	require.Len(t, env.chat.upserted, 1)
	assert.Equal(t, ChatRoleUser, env.chat.upserted[0].Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")

	_, err := env.auth.Register(context.Background(), RegisterParams{
		Username: "mallory",
		Email:    "a@x.com",
		Password: "pw123456",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, env.accounts.byID, 1)
}

func TestRegisterNotifyFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	env.notifier.err = errors.New("smtp down")

	_, err := env.auth.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw123456",
	})
	assert.ErrorIs(t, err, ErrNotifyFailed)

	// The half-created account must not survive.
	assert.Empty(t, env.accounts.byID)
	assert.Len(t, env.accounts.deleted, 1)
}

func TestRegisterChatFailure(t *testing.T) {
	env := newTestEnv()
	env.chat.upsertErr = errors.New("stream down")

	_, err := env.auth.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw123456",
	})
	assert.ErrorIs(t, err, ErrChatUnavailable)
}

// ---- VerifyAccount ----

func TestVerifyAccountRoundTrip(t *testing.T) {
	env := newTestEnv()
	account := register(t, env, "a@x.com")
	code := account.OTP

	require.NoError(t, env.auth.VerifyAccount(context.Background(), "a@x.com", code))

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, account.Verified)
	assert.Empty(t, account.OTP)
	assert.True(t, account.OTPExpiresAt.IsZero())

	// The code was consumed; replaying it must fail.
	err = env.auth.VerifyAccount(context.Background(), "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyAccountWrongCode(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")

	err := env.auth.VerifyAccount(context.Background(), "a@x.com", "000000x")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyAccountExpiredCode(t *testing.T) {
	env := newTestEnv()
	account := register(t, env, "a@x.com")
	account.OTPExpiresAt = time.Now().Add(-time.Second)

	err := env.auth.VerifyAccount(context.Background(), "a@x.com", account.OTP)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyAccountUnknownEmail(t *testing.T) {
	env := newTestEnv()

	err := env.auth.VerifyAccount(context.Background(), "ghost@x.com", "123456")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// ---- ResendOTP ----

func TestResendOTPReplacesChallenge(t *testing.T) {
	env := newTestEnv()
	account := register(t, env, "a@x.com")
	account.OTPExpiresAt = time.Now().Add(-time.Hour) // stale challenge

	require.NoError(t, env.auth.ResendOTP(context.Background(), "a@x.com"))

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Len(t, account.OTP, security.OTPLength)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), account.OTPExpiresAt, time.Minute)
	assert.Len(t, env.notifier.sent, 2)
}

func TestResendOTPAlreadyVerified(t *testing.T) {
	env := newTestEnv()
	account := register(t, env, "a@x.com")
	require.NoError(t, env.auth.VerifyAccount(context.Background(), "a@x.com", account.OTP))

	err := env.auth.ResendOTP(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestResendOTPNotifyFailureClearsChallenge(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")
	env.notifier.err = errors.New("smtp down")

	err := env.auth.ResendOTP(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrNotifyFailed)

	account, getErr := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, getErr)
	// Challenge cleared, but the account itself survives a failed resend.
	assert.Empty(t, account.OTP)
	assert.True(t, account.OTPExpiresAt.IsZero())
}

func TestResendOTPUnknownEmail(t *testing.T) {
	env := newTestEnv()

	err := env.auth.ResendOTP(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// ---- Login ----

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")

	session, err := env.auth.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.ChatToken)
	assert.Equal(t, "alice", session.Account.Username)
}

func TestLoginDoesNotRequireVerification(t *testing.T) {
	env := newTestEnv()
	account := register(t, env, "a@x.com")
	require.False(t, account.Verified)

	_, err := env.auth.Login(context.Background(), "a@x.com", "pw123456")
	assert.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")

	_, wrongPassword := env.auth.Login(context.Background(), "a@x.com", "not-the-password")
	_, unknownEmail := env.auth.Login(context.Background(), "ghost@x.com", "pw123456")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	// Identical error, identical message: no signal about which part failed.
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

// ---- ForgotPassword / ResetPassword ----

func TestForgotPasswordIssuesResetChallenge(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")

	require.NoError(t, env.auth.ForgotPassword(context.Background(), "a@x.com"))

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Len(t, account.ResetOTP, security.OTPLength)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), account.ResetOTPExpiresAt, time.Minute)
	assert.Len(t, env.notifier.sent, 2)
	assert.Contains(t, env.notifier.sent[1].body, account.ResetOTP)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv()

	err := env.auth.ForgotPassword(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestForgotPasswordNotifyFailureClearsChallenge(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")
	env.notifier.err = errors.New("smtp down")

	err := env.auth.ForgotPassword(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrNotifyFailed)

	account, getErr := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, getErr)
	assert.Empty(t, account.ResetOTP)
}

func TestResetPasswordRoundTrip(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")
	require.NoError(t, env.auth.ForgotPassword(context.Background(), "a@x.com"))

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	code := account.ResetOTP

	session, err := env.auth.ResetPassword(context.Background(), ResetPasswordParams{
		Email:       "a@x.com",
		Code:        code,
		NewPassword: "newpw12345",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	// Old credential is dead, new one authenticates.
	_, err = env.auth.Login(context.Background(), "a@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(context.Background(), "a@x.com", "newpw12345")
	assert.NoError(t, err)

	// The reset challenge is consumed exactly once.
	account, err = env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, account.ResetOTP)

	_, err = env.auth.ResetPassword(context.Background(), ResetPasswordParams{
		Email:       "a@x.com",
		Code:        code,
		NewPassword: "anotherpw123",
	})
	assert.ErrorIs(t, err, ErrResetInvalid)
}

func TestResetPasswordExpiredCode(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")
	require.NoError(t, env.auth.ForgotPassword(context.Background(), "a@x.com"))

	account, err := env.accounts.GetAccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	account.ResetOTPExpiresAt = time.Now().Add(-time.Minute)

	_, err = env.auth.ResetPassword(context.Background(), ResetPasswordParams{
		Email:       "a@x.com",
		Code:        account.ResetOTP,
		NewPassword: "newpw12345",
	})
	assert.ErrorIs(t, err, ErrResetInvalid)
}

func TestResetPasswordWrongCode(t *testing.T) {
	env := newTestEnv()
	register(t, env, "a@x.com")
	require.NoError(t, env.auth.ForgotPassword(context.Background(), "a@x.com"))

	_, err := env.auth.ResetPassword(context.Background(), ResetPasswordParams{
		Email:       "a@x.com",
		Code:        "999999x",
		NewPassword: "newpw12345",
	})
	assert.ErrorIs(t, err, ErrResetInvalid)
}
