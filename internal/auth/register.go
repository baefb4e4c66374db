package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/users"
	"github.com/nyumbahq/nyumba-backend/pkg/config"
	dbpkg "github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/security"
)

// RegisterService handles self-service onboarding.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type registerRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
}

type registerService struct {
	repo        registerRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service.
func NewRegisterService(repo registerRepository, passwordCfg config.PasswordConfig) (RegisterService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &registerService{repo: repo, passwordCfg: passwordCfg}, nil
}

// Register creates an unassigned profile. Role assignment is a separate,
// admin-only step.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	profile := users.CreateProfileDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
	}.ToModel()

	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
	}
	return users.FromModel(profile), nil
}
