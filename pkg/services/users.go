package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/crypto"
	"github.com/botslatam/admin-engine/pkg/models"
	"github.com/botslatam/admin-engine/pkg/repositories"
)

// UserUpdate carries optional field updates; nil fields are left unchanged.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *string
}

// UserService defines the interface for user account operations.
type UserService interface {
	// Register creates a new account with role "user".
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	// Login verifies credentials and, when 2FA is active, the TOTP code.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password, totpCode string) (*models.User, error)
	// Activate2FA generates and stores a TOTP secret for the user and
	// returns the secret together with a provisioning QR code (PNG).
	Activate2FA(ctx context.Context, userID int64) (secret string, qrPNG []byte, err error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	// Update applies the given changes. Changing the role requires the
	// actor to be an admin; returns ErrForbidden otherwise.
	Update(ctx context.Context, id int64, update UserUpdate, actorRole string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// userService implements UserService.
type userService struct {
	userRepo   repositories.UserRepository
	totpIssuer string
	secrets    *crypto.SecretEncryptor
	logger     *zap.Logger
}

// NewUserService creates a new user service with dependencies. TOTP
// secrets are encrypted with the given encryptor before they are stored.
func NewUserService(userRepo repositories.UserRepository, totpIssuer string, secrets *crypto.SecretEncryptor, logger *zap.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		totpIssuer: totpIssuer,
		secrets:    secrets,
		logger:     logger,
	}
}

// Register creates a new account. The role is always "user"; promotion is a
// separate admin operation.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleUser,
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Registered user", zap.Int64("user_id", user.ID), zap.String("email", email))
	return user, nil
}

// Login verifies credentials. If the user has 2FA active, a valid TOTP code
// is required as well. All failures collapse into ErrInvalidCredentials so
// callers cannot distinguish which factor failed.
func (s *userService) Login(ctx context.Context, email, password, totpCode string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.HasTOTP() {
		secret, err := s.secrets.Decrypt(user.TOTPSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
		}
		if totpCode == "" || !auth.VerifyTOTPCode(secret, totpCode) {
			return nil, apperrors.ErrInvalidCredentials
		}
	}

	return user, nil
}

// Activate2FA generates a fresh TOTP secret, persists it and returns the
// secret plus a provisioning QR code. Re-activation replaces the old secret.
func (s *userService) Activate2FA(ctx context.Context, userID int64) (string, []byte, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	secret, err := auth.GenerateTOTPSecret(s.totpIssuer, user.Email)
	if err != nil {
		return "", nil, err
	}

	encrypted, err := s.secrets.Encrypt(secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}
	if err := s.userRepo.SetTOTPSecret(ctx, userID, encrypted); err != nil {
		return "", nil, err
	}

	qr, err := auth.ProvisioningQR(s.totpIssuer, user.Email, secret)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("Activated 2FA", zap.Int64("user_id", userID))
	return secret, qr, nil
}

// Get retrieves a user by ID.
func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List retrieves users with filters and pagination.
func (s *userService) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	return s.userRepo.List(ctx, filter)
}

// Update applies partial changes to a user. Only admins may change roles.
func (s *userService) Update(ctx context.Context, id int64, update UserUpdate, actorRole string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Role != nil {
		if actorRole != models.RoleAdmin {
			return nil, apperrors.ErrForbidden
		}
		if !models.IsValidRole(*update.Role) {
			return nil, apperrors.ErrInvalidRole
		}
		user.Role = *update.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a user account.
func (s *userService) Delete(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}

// Ensure userService implements UserService at compile time.
var _ UserService = (*userService)(nil)
