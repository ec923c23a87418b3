package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/circle/internal/domain"
)

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Email:     username + "@Example.com",
		Username:  username,
		FirstName: "Test",
		Password:  "Secret123",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.auth.Register(ctx, registerInput("alice"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Email != "alice@example.com" || resp.User.Role != domain.RoleUser {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if claims["sub"] != resp.User.ID.String() || claims["role"] != domain.RoleUser {
		t.Fatalf("unexpected claims %v", claims)
	}

	if _, err := env.auth.Register(ctx, registerInput("alice")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	dup := registerInput("alice")
	dup.Email = "other@example.com"
	if _, err := env.auth.Register(ctx, dup); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := env.auth.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("expected ErrInvalidCreds, got %v", err)
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Secret123"}); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("expected ErrInvalidCreds, got %v", err)
	}
}

func TestOTPRegistration(t *testing.T) {
	env := newTestEnv(t)
	input := registerInput("bob")

	if err := env.auth.InitRegistration(ctx, input); err != nil {
		t.Fatalf("InitRegistration: %v", err)
	}
	pending := env.db.Pending["bob@example.com"]
	if len(pending.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", pending.Code)
	}
	if env.db.PendingTTL["bob@example.com"] != otpTTL {
		t.Fatalf("expected ttl %v, got %v", otpTTL, env.db.PendingTTL["bob@example.com"])
	}
	if len(env.mailer.sent) != 1 || !strings.Contains(env.mailer.sent[0].Body, pending.Code) {
		t.Fatalf("code not mailed: %+v", env.mailer.sent)
	}

	wrong := "000000"
	if pending.Code == wrong {
		wrong = "111111"
	}
	if _, err := env.auth.VerifyRegistration(ctx, VerifyInput{Email: input.Email, Code: wrong}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if got := env.db.Pending["bob@example.com"].Attempts; got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}

	resp, err := env.auth.VerifyRegistration(ctx, VerifyInput{Email: input.Email, Code: pending.Code})
	if err != nil {
		t.Fatalf("VerifyRegistration: %v", err)
	}
	if resp.User.Username != "bob" || resp.AccessToken == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, ok := env.db.Pending["bob@example.com"]; ok {
		t.Fatal("pending registration should be removed")
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: input.Email, Password: input.Password}); err != nil {
		t.Fatalf("Login after verify: %v", err)
	}
}

func TestOTPTooManyAttempts(t *testing.T) {
	env := newTestEnv(t)
	input := registerInput("carol")
	if err := env.auth.InitRegistration(ctx, input); err != nil {
		t.Fatalf("InitRegistration: %v", err)
	}
	code := env.db.Pending["carol@example.com"].Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < otpMaxAttempts; i++ {
		if _, err := env.auth.VerifyRegistration(ctx, VerifyInput{Email: input.Email, Code: wrong}); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i, err)
		}
	}
	if _, err := env.auth.VerifyRegistration(ctx, VerifyInput{Email: input.Email, Code: wrong}); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if _, err := env.auth.VerifyRegistration(ctx, VerifyInput{Email: input.Email, Code: code}); !errors.Is(err, ErrRegistrationExpired) {
		t.Fatalf("pending entry should be gone, got %v", err)
	}
}

func TestResendCode(t *testing.T) {
	env := newTestEnv(t)
	input := registerInput("dave")
	email := "dave@example.com"

	if err := env.auth.ResendCode(ctx, email); !errors.Is(err, ErrRegistrationExpired) {
		t.Fatalf("expected ErrRegistrationExpired, got %v", err)
	}
	if err := env.auth.InitRegistration(ctx, input); err != nil {
		t.Fatalf("InitRegistration: %v", err)
	}
	if err := env.auth.ResendCode(ctx, email); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown, got %v", err)
	}

	for i := 0; i < otpMaxResends; i++ {
		reg := env.db.Pending[email]
		reg.LastSentAt = time.Now().Add(-2 * otpCooldown)
		env.db.Pending[email] = reg

		if err := env.auth.ResendCode(ctx, email); err != nil {
			t.Fatalf("resend %d: %v", i, err)
		}
	}

	reg := env.db.Pending[email]
	reg.LastSentAt = time.Now().Add(-2 * otpCooldown)
	env.db.Pending[email] = reg
	if err := env.auth.ResendCode(ctx, email); !errors.Is(err, ErrTooManyResends) {
		t.Fatalf("expected ErrTooManyResends, got %v", err)
	}
	if len(env.mailer.sent) != otpMaxResends+1 {
		t.Fatalf("expected %d mails, got %d", otpMaxResends+1, len(env.mailer.sent))
	}
}

func TestReinitCountsAsResend(t *testing.T) {
	env := newTestEnv(t)
	input := registerInput("erin")
	email := "erin@example.com"

	if err := env.auth.InitRegistration(ctx, input); err != nil {
		t.Fatalf("InitRegistration: %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := env.auth.InitRegistration(ctx, input); !errors.Is(err, ErrResendCooldown) {
			t.Fatalf("re-init %d: expected ErrResendCooldown, got %v", i, err)
		}
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(env.mailer.sent))
	}

	for i := 0; i < otpMaxResends; i++ {
		reg := env.db.Pending[email]
		reg.LastSentAt = time.Now().Add(-2 * otpCooldown)
		env.db.Pending[email] = reg

		if err := env.auth.InitRegistration(ctx, input); err != nil {
			t.Fatalf("re-init %d: %v", i, err)
		}
	}
	if got := env.db.Pending[email].Resends; got != otpMaxResends {
		t.Fatalf("expected %d resends recorded, got %d", otpMaxResends, got)
	}

	reg := env.db.Pending[email]
	reg.LastSentAt = time.Now().Add(-2 * otpCooldown)
	env.db.Pending[email] = reg
	if err := env.auth.InitRegistration(ctx, input); !errors.Is(err, ErrTooManyResends) {
		t.Fatalf("expected ErrTooManyResends, got %v", err)
	}
	if err := env.auth.ResendCode(ctx, email); !errors.Is(err, ErrTooManyResends) {
		t.Fatalf("expected ErrTooManyResends from resend, got %v", err)
	}
	if len(env.mailer.sent) != otpMaxResends+1 {
		t.Fatalf("expected %d mails, got %d", otpMaxResends+1, len(env.mailer.sent))
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	msg, err := env.auth.ForgotPassword(ctx, "ghost@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if msg != ForgotPasswordMessage {
		t.Fatalf("unexpected message %q", msg)
	}
	if len(env.db.ResetTokens) != 0 || len(env.mailer.sent) != 0 {
		t.Fatal("no token or email should be created for unknown users")
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.auth.Register(ctx, registerInput("erin")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	msg, err := env.auth.ForgotPassword(ctx, "erin@example.com")
	if err != nil || msg != ForgotPasswordMessage {
		t.Fatalf("ForgotPassword: %q %v", msg, err)
	}
	if len(env.db.ResetTokens) != 1 || len(env.mailer.sent) != 1 {
		t.Fatalf("expected one token and one email")
	}

	body := env.mailer.sent[0].Body
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("no link in %q", body)
	}
	raw := strings.Fields(body[idx+len("token="):])[0]
	if _, ok := env.db.ResetTokens[raw]; ok {
		t.Fatal("raw token must not be stored")
	}

	if err := env.auth.ResetPassword(ctx, ResetPasswordInput{Token: "bogus", Password: "NewSecret1"}); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
	if err := env.auth.ResetPassword(ctx, ResetPasswordInput{Token: raw, Password: "NewSecret1"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if len(env.db.ResetTokens) != 0 {
		t.Fatal("token should be consumed")
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "erin@example.com", Password: "NewSecret1"}); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
	if err := env.auth.ResetPassword(ctx, ResetPasswordInput{Token: raw, Password: "Another1"}); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("token reuse should fail, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "frank")
	env.db.ResetTokens[hashToken("stale")] = domain.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken("stale"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	if err := env.auth.ResetPassword(ctx, ResetPasswordInput{Token: "stale", Password: "NewSecret1"}); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}
