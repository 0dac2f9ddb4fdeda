package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"kondapalli/db"
	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserStore interface {
	Find(ctx context.Context, f models.UserFilter, skip, limit int64) ([]models.User, int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Users struct {
	store  UserStore
	logger *zap.Logger
}

func NewUsers(store UserStore, logger *zap.Logger) *Users {
	return &Users{store: store, logger: logger}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid user ID")
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return utils.NotFound("User not found")
	}
	return err
}

// Filter reads the listing filter. status is "verified" or "unverified".
func Filter(search, role, status string) (models.UserFilter, error) {
	f := models.UserFilter{Search: strings.TrimSpace(search), Role: models.Role(role)}
	if f.Role != "" && !f.Role.Valid() {
		return f, utils.BadRequest("Invalid role")
	}
	switch status {
	case "":
	case "verified":
		v := true
		f.Verified = &v
	case "unverified":
		v := false
		f.Verified = &v
	default:
		return f, utils.BadRequest("Invalid status")
	}
	return f, nil
}

func (s *Users) List(ctx context.Context, f models.UserFilter, page, limit int) ([]models.User, utils.Pagination, error) {
	users, total, err := s.store.Find(ctx, f, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	return users, utils.Paginate(page, limit, total), nil
}

func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

type UpdateRequest struct {
	Name            *string      `json:"name"`
	Email           *string      `json:"email"`
	Phone           *string      `json:"phone"`
	Role            *models.Role `json:"role"`
	IsEmailVerified *bool        `json:"isEmailVerified"`
}

func (s *Users) Update(ctx context.Context, id string, req UpdateRequest) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, utils.BadRequest("Name cannot be empty")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, utils.BadRequest("Please enter a valid email")
		}
		req.Email = &email
	}
	if req.Role != nil && !req.Role.Valid() {
		return nil, utils.BadRequest("Invalid role")
	}

	u, err := s.store.Update(ctx, oid, models.UserUpdate{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Role:            req.Role,
		IsEmailVerified: req.IsEmailVerified,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return nil, utils.BadRequest("User already exists with this email")
	}
	if err != nil {
		return nil, notFound(err)
	}
	s.logger.Info("user updated by admin", zap.String("id", id))
	return u, nil
}

// Delete removes a user. Admins cannot remove their own account.
func (s *Users) Delete(ctx context.Context, actorID, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if id == actorID {
		return utils.BadRequest("Cannot delete your own account")
	}
	if err := s.store.Delete(ctx, oid); err != nil {
		return notFound(err)
	}
	s.logger.Info("user deleted", zap.String("id", id), zap.String("by", actorID))
	return nil
}

const requestTimeout = 10 * time.Second

type Handler struct {
	users  *Users
	logger *zap.Logger
	debug  bool
}

func NewHandler(users *Users, logger *zap.Logger, debug bool) *Handler {
	return &Handler{users: users, logger: logger, debug: debug}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utils.RespondWithErr(w, h.logger, err, h.debug)
}

// GET /api/auth/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	f, err := Filter(q.Get("search"), q.Get("role"), q.Get("status"))
	if err != nil {
		h.fail(w, err)
		return
	}
	page, limit := utils.ParsePage(r, 10)
	users, p, err := h.users.List(ctx, f, page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"users":      users,
		"pagination": p.Body("totalUsers"),
	})
}

// GET /api/auth/users/:id
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	u, err := h.users.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// PUT /api/auth/users/:id
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req UpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.users.Update(ctx, ps.ByName("id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "User updated successfully",
		"user":    u,
	})
}

// DELETE /api/auth/users/:id
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.users.Delete(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "User deleted successfully"})
}
