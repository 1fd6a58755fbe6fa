package server

import (
	"net/http"

	"lumenai/internal/domain"
	"lumenai/internal/services"
)

const passwordResetDone = "Password has been reset. You can now log in."

func (s *Server) mountAuth() {
	s.handleLimited("auth", http.MethodPost, "/api/admin/login", s.login)
	s.handleLimited("auth", http.MethodPost, "/api/admin/forgot-password", s.forgotPassword)
	s.handleLimited("auth", http.MethodPost, "/api/admin/verify-otp", s.verifyOTP)
	s.handleLimited("auth", http.MethodPost, "/api/admin/reset-password", s.resetPassword)

	s.handleAdmin(http.MethodGet, "/api/admin/me", s.me)
	s.handleAdmin(http.MethodPost, "/api/admin/users", s.createAdmin, services.ScopeSuperAdmin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	user, err := s.svc.Auth.Me(r.Context())
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, user)
}

type createAdminRequest struct {
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Role      domain.AdminRole `json:"role"`
}

func (s *Server) createAdmin(w http.ResponseWriter, r *http.Request) error {
	var req createAdminRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	user, err := s.svc.Auth.CreateAdmin(r.Context(), services.AdminInput(req))
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusCreated, user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req forgotPasswordRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := s.svc.Reset.ForgotPassword(r.Context(), req.Email); err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, messageBody{Message: services.ForgotPasswordMessage})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) error {
	var req verifyOTPRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	token, err := s.svc.Reset.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, map[string]string{"resetToken": token})
}

type resetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) error {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := s.svc.Reset.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, messageBody{Message: passwordResetDone})
}
