// Package services contains server-side business logic: the two-step
// OTP login protocol, token lifecycle, password reset and profile
// management. Transport adapters call into these services and map the
// common.* error kinds to responses.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/geo"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/notify"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/otpauth/internal/server/security"
	"github.com/dmitrijs2005/otpauth/internal/server/validation"
)

// Client-facing messages. Credential failures share one message so the
// response does not reveal which part was wrong.
const (
	msgInvalidCredentials = "Invalid email or password."
	msgInvalidOTP         = "Invalid OTP."
	msgExpiredOTP         = "OTP has expired."
	msgInvalidToken       = "Invalid token."
	msgUserNotFound       = "User not found."
)

// dummyPassword is hashed once and verified against for unknown emails, so
// every login attempt costs one hash verification.
const dummyPassword = "otpauth-dummy-password"

type RegisterParams struct {
	Email    string
	Password string
	FullName string
}

type VerifyOTPParams struct {
	Email     string
	OTP       string
	IPAddress string
	Device    string
}

// AuthService implements registration, the password + OTP login, token
// refresh and logout, and password changes.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      security.PasswordHasher
	tokens      TokenAuthority
	notifier    notify.Notifier
	geo         geo.Geolocator
	logger      logging.Logger
	otpTTL      time.Duration
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher security.PasswordHasher,
	tokens TokenAuthority, notifier notify.Notifier, locator geo.Geolocator,
	logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		notifier:    notifier,
		geo:         locator,
		logger:      logger.With("module", "auth"),
		otpTTL:      cfg.OTPValidityDuration,
		now:         time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address; emails are stored and
// looked up in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	return s.createUser(ctx, p, &models.User{Role: models.RoleReader, IsActive: true})
}

// CreateSuperuser creates an active admin with staff and superuser flags.
func (s *AuthService) CreateSuperuser(ctx context.Context, p RegisterParams) (*models.User, error) {
	return s.createUser(ctx, p, &models.User{
		Role:        models.RoleAdmin,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

func (s *AuthService) createUser(ctx context.Context, p RegisterParams, user *models.User) (*models.User, error) {
	email := NormalizeEmail(p.Email)
	if validation.Var(email, "required,email") != nil {
		return nil, common.NewValidationError("Enter a valid email address.")
	}
	if p.Password == "" {
		return nil, common.NewValidationError("Password is required.")
	}
	if validation.Var(p.FullName, "max=255") != nil {
		return nil, common.NewValidationError("Full name must be at most 255 characters.")
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.NewValidationError("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	user.Email = email
	user.PasswordHash = hash
	user.FullName = strings.TrimSpace(p.FullName)

	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("User with this email already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Login is step one of the login: it checks the password and mails a fresh
// code. No tokens are issued here.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.verifyDummy(password)
			return common.NewAuthError(msgInvalidCredentials)
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok || !user.IsActive {
		return common.NewAuthError(msgInvalidCredentials)
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := repo.SetOTP(ctx, user.ID, code, s.now()); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.SendLoginOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	s.logger.Info(ctx, "login otp issued", "user_id", user.ID)
	return nil
}

// hashPassword reports hasher input limits as validation errors.
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", common.NewValidationError("Password must be at most 72 bytes.")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *AuthService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error(context.Background(), "dummy hash failed", "error", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// VerifyOTP is step two of the login. A matching, fresh code is consumed and
// a login activity recorded in one transaction before tokens are issued.
func (s *AuthService) VerifyOTP(ctx context.Context, p VerifyOTPParams) (*auth.TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, NormalizeEmail(p.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive || !user.HasPendingOTP() || !security.EqualCodes(*user.OTP, p.OTP) {
		return nil, common.NewAuthError(msgInvalidOTP)
	}
	if !user.OTPFresh(s.now(), s.otpTTL) {
		return nil, common.NewAuthError(msgExpiredOTP)
	}

	loc := s.geo.Locate(ctx, p.IPAddress)

	activity, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.LoginActivity, error) {
		if err := s.repomanager.Users(tx).ClearOTP(ctx, user.ID, *user.OTP); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.NewAuthError(msgInvalidOTP)
			}
			return nil, fmt.Errorf("clear otp: %w", err)
		}

		a, err := s.repomanager.LoginActivities(tx).Create(ctx, &models.LoginActivity{
			UserID:    user.ID,
			IPAddress: p.IPAddress,
			City:      loc.City,
			Region:    loc.Region,
			Country:   loc.Country,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Device:    p.Device,
		})
		if err != nil {
			return nil, fmt.Errorf("record login activity: %w", err)
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.Info(ctx, "login completed", "user_id", user.ID, "activity_id", activity.ID, "ip", p.IPAddress)
	return pair, nil
}

// Logout blacklists the caller's refresh token. Every failure, including
// a token owned by someone else, is reported as the same auth error.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn(ctx, "logout rejected", "user_id", userID, "error", err)
		return common.NewAuthError(msgInvalidToken)
	}
	if claims.UserID != userID {
		return common.NewAuthError(msgInvalidToken)
	}

	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.Warn(ctx, "logout rejected", "user_id", userID, "error", err)
		return common.NewAuthError(msgInvalidToken)
	}

	return nil
}

// RefreshAccessToken exchanges a valid, non-revoked refresh token of an
// active user for a new access token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(ctx, refreshToken)
	if err != nil {
		if isTokenError(err) {
			return "", common.NewAuthError(msgInvalidToken)
		}
		return "", err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.NewAuthError(msgInvalidToken)
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return "", common.NewAuthError(msgInvalidToken)
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Authenticate resolves an access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.NewAuthError("Token has expired.")
		}
		return nil, common.NewAuthError("Given token not valid.")
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAuthError(msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, common.NewAuthError("User is inactive.")
	}
	return user, nil
}

func (s *AuthService) LoginHistory(ctx context.Context, userID string) ([]*models.LoginActivity, error) {
	items, err := s.repomanager.LoginActivities(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list login activities: %w", err)
	}
	return items, nil
}

// ChangePassword replaces the password after checking the old one.
// Outstanding tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewNotFoundError(msgUserNotFound)
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return common.NewAuthError("Old password is incorrect.")
	}
	if newPassword == "" {
		return common.NewValidationError("New password is required.")
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// ListUsers returns every identity, including pending OTP state. It backs
// the admin listing.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func isTokenError(err error) bool {
	return errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrTokenRevoked)
}
