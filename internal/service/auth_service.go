package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/mail"
	"github.com/vedran77/circle/internal/repository"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmailTaken          = errors.New("email already taken")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCreds        = errors.New("invalid email or password")
	ErrRegistrationExpired = errors.New("no pending registration for this email")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrResendCooldown      = errors.New("verification code was sent recently")
	ErrTooManyResends      = errors.New("verification code resend limit reached")
	ErrInvalidResetToken   = errors.New("reset token is invalid or expired")
)

const (
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
	otpMaxResends  = 5
	otpCooldown    = 60 * time.Second
	resetTokenTTL  = time.Hour
)

// ForgotPasswordMessage is returned whether or not the email is registered.
const ForgotPasswordMessage = "If a user exists with that email, a password reset link has been sent."

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	PublicURL string
}

type AuthService struct {
	userRepo  repository.UserRepository
	resetRepo repository.ResetTokenRepository
	otpStore  repository.OTPStore
	mailer    mail.Mailer
	jwtSecret []byte
	tokenTTL  time.Duration
	publicURL string
}

func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.ResetTokenRepository,
	otpStore repository.OTPStore,
	mailer mail.Mailer,
	cfg AuthConfig,
) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		otpStore:  otpStore,
		mailer:    mailer,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Password  string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.checkAvailable(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return s.createUser(ctx, input.Email, input.Username, input.FirstName, input.LastName, hash)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

// InitRegistration stores a pending signup and emails a verification code. Calling it again for the
// same email replaces the pending entry but counts against the resend limits.
func (s *AuthService) InitRegistration(ctx context.Context, input RegisterInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := s.checkAvailable(ctx, input.Email, input.Username); err != nil {
		return err
	}

	resends := 0
	existing, err := s.otpStore.Get(ctx, input.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := checkResend(existing); err != nil {
			return err
		}
		resends = existing.Resends + 1
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	reg := &domain.PendingRegistration{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Code:         code,
		Resends:      resends,
		LastSentAt:   time.Now(),
	}
	if err := s.otpStore.Save(ctx, reg, otpTTL); err != nil {
		return fmt.Errorf("saving pending registration: %w", err)
	}

	return s.sendCode(ctx, reg)
}

func (s *AuthService) VerifyRegistration(ctx context.Context, input VerifyInput) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)
	reg, err := s.otpStore.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistrationExpired
	}

	if subtle.ConstantTimeCompare([]byte(reg.Code), []byte(input.Code)) != 1 {
		reg.Attempts++
		if reg.Attempts >= otpMaxAttempts {
			if err := s.otpStore.Delete(ctx, email); err != nil {
				return nil, err
			}
			return nil, ErrTooManyAttempts
		}
		if err := s.otpStore.Save(ctx, reg, 0); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCode
	}

	// The email or username may have been claimed while the code was outstanding.
	if err := s.checkAvailable(ctx, reg.Email, reg.Username); err != nil {
		return nil, err
	}

	resp, err := s.createUser(ctx, reg.Email, reg.Username, reg.FirstName, reg.LastName, reg.PasswordHash)
	if err != nil {
		return nil, err
	}

	if err := s.otpStore.Delete(ctx, email); err != nil {
		log.Warn("dropping pending registration", "email", email, "err", err)
	}
	return resp, nil
}

func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	reg, err := s.otpStore.Get(ctx, email)
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrRegistrationExpired
	}
	if err := checkResend(reg); err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}
	reg.Code = code
	reg.Attempts = 0
	reg.Resends++
	reg.LastSentAt = time.Now()

	if err := s.otpStore.Save(ctx, reg, otpTTL); err != nil {
		return fmt.Errorf("saving pending registration: %w", err)
	}
	return s.sendCode(ctx, reg)
}

func checkResend(reg *domain.PendingRegistration) error {
	if reg.Resends >= otpMaxResends {
		return ErrTooManyResends
	}
	if time.Since(reg.LastSentAt) < otpCooldown {
		return ErrResendCooldown
	}
	return nil
}

// ForgotPassword never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return ForgotPasswordMessage, nil
	}

	raw, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}

	if err := s.resetRepo.DeleteByUser(ctx, user.ID); err != nil {
		return "", err
	}

	now := time.Now()
	token := &domain.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("creating reset token: %w", err)
	}

	link := s.publicURL + "/reset-password?token=" + raw
	body := "Someone asked to reset your password. Open the link below within one hour to choose a new one.\n\n" +
		link + "\n\nIf it wasn't you, ignore this email."
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		log.Error("sending reset email", "user_id", user.ID, "err", err)
	}

	return ForgotPasswordMessage, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	token, err := s.resetRepo.GetByHash(ctx, hashToken(input.Token))
	if err != nil {
		return err
	}
	if token == nil || time.Now().After(token.ExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, token.UserID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return s.resetRepo.DeleteByUser(ctx, token.UserID)
}

func (s *AuthService) checkAvailable(ctx context.Context, email, username string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, email, username, firstName, lastName, hash string) (*AuthResponse, error) {
	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		FirstName:    firstName,
		LastName:     lastName,
		Settings:     domain.DefaultSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) sendCode(ctx context.Context, reg *domain.PendingRegistration) error {
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", reg.Code, int(otpTTL.Minutes()))
	return s.mailer.Send(ctx, reg.Email, "Verify your email", body)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
