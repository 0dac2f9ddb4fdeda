package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"kondapalli/db"
	"kondapalli/middleware"
	"kondapalli/models"
	"kondapalli/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 2 * time.Hour
	resetTokenTTL    = time.Hour
	minPasswordLen   = 6
)

type Store interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.UserUpdate) (*models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error
	IncLoginAttempts(ctx context.Context, id primitive.ObjectID) (int, error)
	Lock(ctx context.Context, id primitive.ObjectID, until time.Time) error
	ResetLoginAttempts(ctx context.Context, id primitive.ObjectID, login time.Time) error
}

type Service struct {
	users  Store
	tokens *middleware.Tokens
	logger *zap.Logger
	now    func() time.Time
	cost   int
}

func NewService(users Store, tokens *middleware.Tokens, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger, now: time.Now, cost: bcrypt.DefaultCost}
}

// Session is what a successful register or login hands back.
type Session struct {
	Token string
	User  *models.User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func checkPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID.Hex(), u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, utils.BadRequest("Name, email, and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, utils.BadRequest("Please enter a valid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, utils.BadRequestf("Password must be at least %d characters", minPasswordLen)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Phone:    strings.TrimSpace(req.Phone),
		Role:     models.RoleCustomer,
		Preferences: models.UserPreferences{
			EmailNotifications: true,
			Language:           "en",
		},
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, utils.BadRequest("User already exists with this email")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.logger.Info("user registered", zap.String("id", u.ID.Hex()))
	return s.session(u)
}

// Login checks credentials. Five consecutive failures lock the account for
// two hours; a successful login clears the counter.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, utils.BadRequest("Email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, utils.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	if u.IsLocked(now) {
		return nil, utils.Locked("Account is temporarily locked due to too many failed login attempts")
	}
	if u.LockUntil != nil {
		// The previous lock has run out; count afresh.
		if err := s.users.ResetLoginAttempts(ctx, u.ID, time.Time{}); err != nil {
			return nil, fmt.Errorf("clear expired lock: %w", err)
		}
	}

	if !checkPassword(u, password) {
		attempts, err := s.users.IncLoginAttempts(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count failed login: %w", err)
		}
		if attempts >= maxLoginAttempts {
			if err := s.users.Lock(ctx, u.ID, now.Add(lockDuration)); err != nil {
				return nil, fmt.Errorf("lock user: %w", err)
			}
			s.logger.Warn("account locked", zap.String("id", u.ID.Hex()), zap.Int("attempts", attempts))
		}
		return nil, utils.Unauthorized("Invalid credentials")
	}

	if err := s.users.ResetLoginAttempts(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	u.LastLogin = &now
	return s.session(u)
}

func parseUserID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid user ID")
	}
	return oid, nil
}

func userNotFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return utils.NotFound("User not found")
	}
	return err
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, userNotFound(err)
	}
	return u, nil
}

type ProfileRequest struct {
	Name        *string                 `json:"name"`
	Phone       *string                 `json:"phone"`
	Profile     *models.UserProfile     `json:"profile"`
	Preferences *models.UserPreferences `json:"preferences"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req ProfileRequest) (*models.User, error) {
	oid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, utils.BadRequest("Name cannot be empty")
		}
		req.Name = &name
	}
	u, err := s.users.Update(ctx, oid, models.UserUpdate{
		Name:        req.Name,
		Phone:       req.Phone,
		Profile:     req.Profile,
		Preferences: req.Preferences,
	})
	if err != nil {
		return nil, userNotFound(err)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return utils.BadRequest("Current and new password are required")
	}
	if len(next) < minPasswordLen {
		return utils.BadRequestf("Password must be at least %d characters", minPasswordLen)
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(u, current) {
		return utils.BadRequest("Current password is incorrect")
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return userNotFound(err)
	}
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword stores the hash of a fresh one-hour reset token and returns
// the token itself.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", utils.BadRequest("Email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", userNotFound(err)
	}
	token, err := newResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, hashToken(token), s.now().Add(resetTokenTTL)); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	s.logger.Info("password reset requested", zap.String("id", u.ID.Hex()))
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	if token == "" || next == "" {
		return utils.BadRequest("Token and new password are required")
	}
	if len(next) < minPasswordLen {
		return utils.BadRequestf("Password must be at least %d characters", minPasswordLen)
	}
	u, err := s.users.FindByResetToken(ctx, hashToken(token), s.now())
	if errors.Is(err, db.ErrNotFound) {
		return utils.BadRequest("Invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("find reset token: %w", err)
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return userNotFound(err)
	}
	if err := s.users.ResetLoginAttempts(ctx, u.ID, time.Time{}); err != nil {
		return fmt.Errorf("clear lock after reset: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
// An existing customer with that email is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			s.logger.Warn("admin seed email belongs to a non-admin user", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u := &models.User{
		Name:            "Administrator",
		Email:           email,
		Password:        hash,
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	}
	if err := s.users.Insert(ctx, u); err != nil && !errors.Is(err, db.ErrDuplicate) {
		return fmt.Errorf("insert admin: %w", err)
	}
	s.logger.Info("admin user created", zap.String("email", email))
	return nil
}
