package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/security"
)

const msgInvalidResetToken = "Invalid or expired reset token."

// RequestPasswordReset stores a standalone code for email and mails it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewNotFoundError(msgUserNotFound)
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	otp, err := s.repomanager.PasswordResetOTPs(s.db).Create(ctx, &models.PasswordResetOTP{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL),
	})
	if err != nil {
		return fmt.Errorf("store reset otp: %w", err)
	}

	if err := s.notifier.SendPasswordResetOTP(ctx, email, code); err != nil {
		return fmt.Errorf("send reset otp: %w", err)
	}

	s.logger.Info(ctx, "password reset requested", "otp_id", otp.ID)
	return nil
}

// VerifyPasswordResetOTP checks code against the newest active reset code
// for email and returns a signed proof that ResetPassword accepts.
func (s *AuthService) VerifyPasswordResetOTP(ctx context.Context, email, code string) (string, error) {
	otp, err := s.repomanager.PasswordResetOTPs(s.db).FindLatestActive(ctx, NormalizeEmail(email), s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.NewAuthError(msgInvalidOTP)
		}
		return "", fmt.Errorf("lookup reset otp: %w", err)
	}

	if !security.EqualCodes(otp.Code, code) {
		return "", common.NewAuthError(msgInvalidOTP)
	}

	proof, err := s.tokens.IssuePasswordResetProof(otp.Email, otp.ID, otp.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	return proof, nil
}

// ResetPassword sets a new password for the proof's email and consumes the
// underlying code. Both writes share one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return common.NewAuthError(msgInvalidResetToken)
	}

	claims, err := s.tokens.ParsePasswordResetProof(resetToken)
	if err != nil {
		return common.NewAuthError(msgInvalidResetToken)
	}

	if newPassword == "" {
		return common.NewValidationError("New password is required.")
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		otp, err := s.repomanager.PasswordResetOTPs(tx).GetByID(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthError(msgInvalidResetToken)
			}
			return fmt.Errorf("lookup reset otp: %w", err)
		}
		if !otp.Valid(s.now()) || otp.Email != claims.Subject {
			return common.NewAuthError(msgInvalidResetToken)
		}

		user, err := s.repomanager.Users(tx).GetByEmail(ctx, otp.Email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthError(msgInvalidResetToken)
			}
			return fmt.Errorf("lookup user: %w", err)
		}

		if err := s.repomanager.PasswordResetOTPs(tx).MarkUsed(ctx, otp.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthError(msgInvalidResetToken)
			}
			return fmt.Errorf("mark reset otp used: %w", err)
		}

		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		s.logger.Info(ctx, "password reset", "user_id", user.ID)
		return nil
	})
}
