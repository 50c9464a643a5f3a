package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/internal/stores"
	"github.com/shopcanvas/backend/internal/users"
	pkgauth "github.com/shopcanvas/backend/pkg/auth"
	"github.com/shopcanvas/backend/pkg/config"
	dbpkg "github.com/shopcanvas/backend/pkg/db"
	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput carries the signup fields. StoreName/StoreSlug are only used
// when registering a merchant and provision the tenant in the same transaction.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	Role      enums.MemberRole
	StoreName string
	StoreSlug string
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the authenticated result returned to controllers.
type Session struct {
	Token   string           `json:"token"`
	UserID  uuid.UUID        `json:"user_id"`
	StoreID *uuid.UUID       `json:"store_id,omitempty"`
	Role    enums.MemberRole `json:"role"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
}

// Service implements registration and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
}

type service struct {
	users    users.Repository
	stores   stores.Repository
	tx       txRunner
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	timeFunc func() time.Time
}

// NewService builds the auth service.
func NewService(usersRepo users.Repository, storesRepo stores.Repository, tx txRunner, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if storesRepo == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		users:    usersRepo,
		stores:   storesRepo,
		tx:       tx,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		timeFunc: time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	role := input.Role
	if role == "" {
		role = enums.MemberRoleShopper
	}
	if !role.IsValid() || role == enums.MemberRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be shopper or merchant")
	}
	if role == enums.MemberRoleMerchant {
		if strings.TrimSpace(input.StoreName) == "" || strings.TrimSpace(input.StoreSlug) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant registration requires store name and slug")
		}
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := usersRepo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(input.Name),
			Role:         role,
			IsActive:     true,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if role == enums.MemberRoleMerchant {
			store, err := s.stores.WithTx(tx).Create(ctx, &models.Store{
				Slug:     strings.ToLower(strings.TrimSpace(input.StoreSlug)),
				Name:     strings.TrimSpace(input.StoreName),
				OwnerID:  user.ID,
				IsActive: true,
			})
			if err != nil {
				if dbpkg.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "store slug already taken")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
			}
			if err := usersRepo.AttachStore(ctx, user.ID, store.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach store")
			}
			user.StoreID = &store.ID
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.sessionFor(created)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	// Best-effort bookkeeping; login succeeds regardless.
	_ = s.users.TouchLastLogin(ctx, user.ID, s.timeFunc().UTC())

	return s.sessionFor(user)
}

func (s *service) sessionFor(user *models.User) (*Session, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.timeFunc(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		StoreID: user.StoreID,
		Role:    user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Session{
		Token:   token,
		UserID:  user.ID,
		StoreID: user.StoreID,
		Role:    user.Role,
		Name:    user.Name,
		Email:   user.Email,
	}, nil
}
