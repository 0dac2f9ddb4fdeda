package auth

import (
	"context"
	"net/http"
	"time"

	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	svc    *Service
	logger *zap.Logger
	// debug also exposes password reset tokens in the response body.
	debug bool
}

func NewHandler(svc *Service, logger *zap.Logger, debug bool) *Handler {
	return &Handler{svc: svc, logger: logger, debug: debug}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utils.RespondWithErr(w, h.logger, err, h.debug)
}

func publicUser(u *models.User) utils.M {
	return utils.M{
		"id":              u.ID,
		"name":            u.Name,
		"email":           u.Email,
		"phone":           u.Phone,
		"role":            u.Role,
		"isEmailVerified": u.IsEmailVerified,
	}
}

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sess, err := h.svc.Register(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "User registered successfully",
		"token":   sess.Token,
		"user":    publicUser(sess.User),
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sess, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Login successful",
		"token":   sess.Token,
		"user":    publicUser(sess.User),
	})
}

// GET /api/auth/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	u, err := h.svc.Profile(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req ProfileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.svc.UpdateProfile(ctx, utils.GetUserIDFromRequest(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Profile updated successfully",
		"user":    u,
	})
}

// POST /api/auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.ChangePassword(ctx, utils.GetUserIDFromRequest(r), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Password changed successfully"})
}

// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	token, err := h.svc.ForgotPassword(ctx, req.Email)
	if err != nil {
		h.fail(w, err)
		return
	}
	body := utils.M{"message": "Password reset link sent to your email"}
	if h.debug {
		body["resetToken"] = token
	}
	utils.RespondWithJSON(w, http.StatusOK, body)
}

// POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Password reset successfully"})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out successfully"})
}
