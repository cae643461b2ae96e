package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/policy"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// selfServiceRoles may be chosen on the public registration form.
var selfServiceRoles = []string{string(models.RoleCashier), string(models.RoleBaker)}

// NewUserInput is used both by self registration and by administrators.
type NewUserInput struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UserUpdate changes an existing account; nil fields are left untouched and
// an empty Password keeps the current one.
type UserUpdate struct {
	Role     *models.Role `json:"role,omitempty"`
	Active   *bool        `json:"active,omitempty"`
	Password string       `json:"password,omitempty"`
}

type UserService struct {
	db *gorm.DB
	// onChange is told about users whose role or status changed.
	onChange func(uid uint)
}

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

// OnChange registers a callback run after a user is updated, used to drop
// cached identities.
func (s *UserService) OnChange(f func(uid uint)) { s.onChange = f }

func validateNewUser(in NewUserInput) validation.Violations {
	v := validation.Violations{}
	validation.Required("username", in.Username, v)
	validation.MaxLen("username", in.Username, 50, v)
	if len(in.Password) < auth.MinPasswordLength {
		v["password"] = "password_too_short"
	}
	if !in.Role.Valid() {
		v["role"] = "invalid_choice"
	}
	return v
}

// Register creates an account from the public quick-registration form.
// Only the cashier and baker roles are accepted there.
func (s *UserService) Register(ctx context.Context, in NewUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	v := validateNewUser(in)
	validation.OneOf("role", string(in.Role), selfServiceRoles, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Create adds a user with any role. Reserved for administrators.
func (s *UserService) Create(ctx context.Context, in NewUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := invalid(validateNewUser(in)); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in NewUserInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{Username: in.Username, PasswordHash: hash, Role: in.Role, Active: true}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, persistErr(err, "username "+in.Username)
	}
	log.Ctx(ctx).Info().Uint("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return &u, nil
}

// Update applies role, status and password changes.
func (s *UserService) Update(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	db := s.db.WithContext(ctx)
	u, err := findByID[models.User](db, id, "user")
	if err != nil {
		return nil, err
	}
	v := validation.Violations{}
	fields := map[string]any{}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			v["role"] = "invalid_choice"
		}
		fields["role"] = *upd.Role
	}
	if upd.Active != nil {
		fields["active"] = *upd.Active
	}
	if upd.Password != "" {
		if len(upd.Password) < auth.MinPasswordLength {
			v["password"] = "password_too_short"
		} else {
			hash, err := auth.HashPassword(upd.Password)
			if err != nil {
				return nil, err
			}
			fields["password_hash"] = hash
		}
	}
	if err := invalid(v); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := db.Model(u).Updates(fields).Error; err != nil {
			return nil, err
		}
		if s.onChange != nil {
			s.onChange(id)
		}
	}
	return findByID[models.User](db, id, "user")
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return findByID[models.User](s.db.WithContext(ctx), id, "user")
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.db.WithContext(ctx).Order("username asc").Find(&out).Error
	return out, err
}

// dummyHash is compared against when no usable account matches, so every
// failed login costs one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("invalid-credentials")
	if err != nil {
		panic(err)
	}
	return h
})

// AuthService verifies credentials.
type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

// Login returns the identity of an active user whose password matches.
// Unknown users, wrong passwords and disabled accounts all yield
// ErrInvalidCredentials so callers cannot tell them apart.
func (s *AuthService) Login(ctx context.Context, username, password string) (*policy.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.CheckPassword(dummyHash(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	hash := u.PasswordHash
	if hash == "" {
		hash = dummyHash()
	}
	matches := auth.CheckPassword(hash, password) && hash == u.PasswordHash
	if !u.Active || !matches {
		return nil, ErrInvalidCredentials
	}
	return &policy.Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}
