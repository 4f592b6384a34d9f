package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/auth"
	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/pkg/crypto"
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken signals that the email is already registered.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email address is already in use", http.StatusBadRequest)
	// ErrBranchNameTaken signals a branch name collision during manager registration.
	ErrBranchNameTaken = apperrors.New("BRANCH_NAME_TAKEN", "Branch name is already in use", http.StatusBadRequest)
)

// RegisterManagerInput describes the self-service branch manager signup.
// The branch is created when no branch with that name exists yet.
type RegisterManagerInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	BranchName    string
	BranchAddress string
	RegionID      *string
}

// UserService manages accounts: authentication, registration and the
// scoped staff directory.
type UserService struct {
	db  *gorm.DB
	jwt *auth.JWTService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, jwt *auth.JWTService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("user service: jwt service is required")
	}
	return &UserService{db: db, jwt: jwt}, nil
}

// Authenticate verifies credentials and issues an access token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Branch").Preload("Branch.Region").Preload("Region").
		First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("user service: find user: %w", err)
	}

	if !user.IsActive || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(&user)
	if err != nil {
		return nil, "", fmt.Errorf("user service: issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, token, nil
}

// Profile loads the full user row for the /auth/me endpoint.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Branch").Preload("Branch.Region").Preload("Region").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load profile: %w", err)
	}
	return &user, nil
}

// RegisterManager provisions a branch manager together with their branch. An
// existing branch name is a conflict: managers join existing branches through
// invitations, not signup.
func (s *UserService) RegisterManager(ctx context.Context, input RegisterManagerInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	branchName := strings.TrimSpace(input.BranchName)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}
	if branchName == "" {
		return nil, apperrors.NewBadRequest("branch name is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      models.RoleBranchManager,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Branch
		err := tx.First(&existing, "name = ?", branchName).Error
		if err == nil {
			return ErrBranchNameTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user service: check branch name: %w", err)
		}

		branch := models.Branch{
			Name:     branchName,
			Address:  strings.TrimSpace(input.BranchAddress),
			RegionID: input.RegionID,
		}
		if err := tx.Create(&branch).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrBranchNameTaken
			}
			return fmt.Errorf("user service: create branch: %w", err)
		}

		user.BranchID = &branch.ID
		user.Branch = &branch
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("user service: create manager: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the old password before storing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewBadRequest("new password is required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, oldPassword) {
		return apperrors.NewBadRequest("current password is incorrect")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}

// List returns the staff directory visible to the actor.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(authz.UsersFor(actor)).
		Preload("Branch").
		Order("users.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}
