package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
	"github.com/dmitrijs2005/otpauth/internal/server/validation"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

type Handler struct {
	auth     AuthService
	profiles ProfileService
	logger   logging.Logger
}

func NewHandler(a AuthService, p ProfileService, l logging.Logger) *Handler {
	return &Handler{auth: a, profiles: p, logger: l.With("module", "rest")}
}

func errorsIsAuth(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized)
}

// decode reads a JSON body into v and validates it. It writes the 400
// response itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := validation.Struct(v); err != nil {
		writeBadRequest(w, common.Message(err, "Invalid request."))
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeBadRequest(w, "Request body is empty.")
			return false
		}
		writeBadRequest(w, "Malformed JSON body.")
		return false
	}
	return true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.auth.Register(r.Context(), services.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Registered successfully!")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.auth.Login(r.Context(), req.Email, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email.")
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.auth.VerifyOTP(r.Context(), services.VerifyOTPParams{
		Email:     req.Email,
		OTP:       req.OTP,
		IPAddress: clientIP(r),
		Device:    r.UserAgent(),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginSuccessResponse{
		Message: "Login successful!",
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID, req.Refresh); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully.")
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	access, err := h.auth.RefreshAccessToken(r.Context(), req.Refresh)
	if err != nil {
		if errorsIsAuth(err) {
			writeDetail(w, http.StatusUnauthorized, common.Message(err, "Token is invalid or expired."))
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessResponse{Access: access})
}

func (h *Handler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	items, err := h.auth.LoginHistory(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginActivityResponses(items))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.auth.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully.")
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email.")
}

func (h *Handler) VerifyForgotOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.auth.VerifyPasswordResetOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetTokenResponse{
		Message:    "OTP verified. You can now reset your password.",
		ResetToken: token,
	})
}

// ResetPassword leaves field checks to the service so a missing proof is
// reported before a missing password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully.")
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAdminUserResponses(users))
}
