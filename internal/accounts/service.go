package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-inventory/internal/roles"
	"github.com/angelmondragon/pharmacy-inventory/internal/users"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/metrics"
)

const duplicateEmailMessage = "There is already an account registered with the same email"

// RegisterInput is the sign-up payload shared by the form and JSON surfaces.
type RegisterInput struct {
	Name     string `json:"name" form:"name" validate:"required,max=120"`
	Username string `json:"username" form:"username" validate:"required,max=60"`
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=128"`
}

// Service manages accounts and their role assignments.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*users.UserDTO, error)
	AuthenticateLookup(ctx context.Context, username string) (*models.User, error)
	ElevateToAdmin(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context) ([]users.UserDTO, error)
	Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	Search(ctx context.Context, query string) ([]users.UserDTO, error)
	RehashPassword(ctx context.Context, userID uuid.UUID, password string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// ServiceParams bundles the dependencies required to build the account service.
type ServiceParams struct {
	DB      *db.Client
	Hasher  passwordHasher
	Metrics *metrics.DomainMetrics
}

type service struct {
	db      *db.Client
	hasher  passwordHasher
	metrics *metrics.DomainMetrics
}

// NewService constructs the account service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	return &service{
		db:      params.DB,
		hasher:  params.Hasher,
		metrics: params.Metrics,
	}, nil
}

// Register creates a ROLE_USER account. The email and username checks, the
// role lookup and both inserts share one transaction.
func (s *service) Register(ctx context.Context, input RegisterInput) (*users.UserDTO, error) {
	dto, err := s.register(ctx, input)
	s.metrics.Registration(err)
	return dto, err
}

func (s *service) register(ctx context.Context, input RegisterInput) (*users.UserDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateRegister(input); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var userID uuid.UUID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := roles.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, input.Email); err == nil {
			return duplicateEmail()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}
		if _, err := userRepo.FindByUsername(ctx, input.Username); err == nil {
			return duplicateUsername()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
		}

		role, err := resolveUserRole(ctx, roleRepo)
		if err != nil {
			return err
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         input.Name,
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: passwordHash,
			RoleIDs:      []uuid.UUID{role.ID},
		})
		if err != nil {
			switch {
			case db.IsUniqueViolation(err, "email"):
				return duplicateEmail()
			case db.IsUniqueViolation(err, "username"):
				return duplicateUsername()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		userID = user.ID
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
	}

	return s.Get(ctx, userID)
}

// resolveUserRole returns ROLE_USER, creating it on first use. Two first
// registrations racing to create it both end up with the same row.
func resolveUserRole(ctx context.Context, repo *roles.Repository) (*models.Role, error) {
	role, err := repo.FindByName(ctx, enums.RoleUser)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user role")
	}
	role, err = repo.Ensure(ctx, enums.RoleUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user role")
	}
	return role, nil
}

func validateRegister(input RegisterInput) error {
	missing := map[string]string{}
	if input.Name == "" {
		missing["name"] = "name is required"
	}
	if input.Username == "" {
		missing["username"] = "username is required"
	}
	if input.Email == "" {
		missing["email"] = "email is required"
	}
	if input.Password == "" {
		missing["password"] = "password is required"
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "registration is incomplete").WithDetails(missing)
}

func duplicateEmail() error {
	return pkgerrors.New(pkgerrors.CodeDuplicateEmail, duplicateEmailMessage).
		WithDetails(map[string]string{"email": duplicateEmailMessage})
}

func duplicateUsername() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "username already taken").
		WithDetails(map[string]string{"username": "username already taken"})
}

// AuthenticateLookup loads the account behind a login attempt with its roles.
// Password verification is the caller's job.
func (s *service) AuthenticateLookup(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	user, err := users.NewRepository(s.db.DB()).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// ElevateToAdmin replaces the user's roles with exactly ROLE_ADMIN. The admin
// role is never created here; a missing one is a configuration problem.
func (s *service) ElevateToAdmin(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		if _, err := userRepo.FindByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		admin, err := roles.NewRepository(tx).FindByName(ctx, enums.RoleAdmin)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeRoleNotConfigured, "admin role is not configured")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin role")
		}

		if err := userRepo.ReplaceRoles(ctx, userID, []uuid.UUID{admin.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace roles")
		}
		return nil
	})
	s.metrics.Elevation(err)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "elevate user")
	}
	return s.Get(ctx, userID)
}

// Delete removes the user and its role links. Unknown ids are a no-op.
func (s *service) Delete(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := users.NewRepository(tx).Delete(ctx, userID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]users.UserDTO, error) {
	rows, err := users.NewRepository(s.db.DB()).List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return users.FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.FromModel(user), nil
}

// RehashPassword re-encodes a verified password with the current hashing
// parameters.
func (s *service) RehashPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := users.NewRepository(s.db.DB()).UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password hash")
	}
	return nil
}

// Search falls back to the full list for a blank query.
func (s *service) Search(ctx context.Context, query string) ([]users.UserDTO, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx)
	}
	rows, err := users.NewRepository(s.db.DB()).Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search users")
	}
	return users.FromModels(rows), nil
}
