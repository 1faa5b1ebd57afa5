package rest

import (
	"net/http"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the HTTP API. Paths keep their trailing slash.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Post("/register/", h.Register)
	r.Post("/login/", h.Login)
	r.Post("/verify-otp/", h.VerifyOTP)
	r.Post("/token/refresh/", h.RefreshToken)
	r.Post("/forgot-password/", h.ForgotPassword)
	r.Post("/verify-forgot-otp/", h.VerifyForgotOTP)
	r.Post("/reset-password/", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/logout/", h.Logout)
		r.Get("/login-history/", h.LoginHistory)
		r.Post("/change-password/", h.ChangePassword)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/view/", h.ViewProfile)
			r.Put("/update/", h.UpdateProfile)
			r.Patch("/update/", h.UpdateProfile)
			r.Post("/upload-image/", h.UploadImage)
			r.Delete("/delete-image/", h.DeleteImage)
		})

		r.With(h.requireRoles(models.RoleAdmin)).Get("/admin/users/", h.ListUsers)
	})

	return r
}
