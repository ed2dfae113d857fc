package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
	"saju-backend/internal/security"
)

const minPasswordLength = 8

type authService struct {
	userRepo     repository.UserRepository
	ledgerRepo   repository.LedgerRepository
	tokenManager security.TokenManager
	verifier     security.IdentityVerifier
	accessTTL    time.Duration
	adminEmails  map[string]bool
}

// NewAuthService issues local JWTs. When verifier is non-nil, bearer tokens
// are treated as ID tokens of that provider instead.
func NewAuthService(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	tokenManager security.TokenManager,
	verifier security.IdentityVerifier,
	accessTTL time.Duration,
	adminEmails []string,
) AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &authService{
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		tokenManager: tokenManager,
		verifier:     verifier,
		accessTTL:    accessTTL,
		adminEmails:  admins,
	}
}

func (s *authService) roleFor(email string) domain.UserRole {
	if s.adminEmails[strings.ToLower(email)] {
		return domain.UserRoleAdmin
	}
	return domain.UserRoleUser
}

func (s *authService) Register(ctx context.Context, email, password, name string) (*domain.User, *AuthTokens, error) {
	logger.EnterMethod("authService.Register", "email", email)

	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		err = fmt.Errorf("%w: email", domain.ErrInvalidInput)
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}
	if len(password) < minPasswordLength {
		err := fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         s.roleFor(email),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}
	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, *AuthTokens, error) {
	logger.EnterMethod("authService.Login", "email", email)

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrInvalidCredentials
		}
		logger.ExitMethodWithError("authService.Login", err)
		return nil, nil, err
	}
	// Accounts provisioned from an external provider have no local password.
	if user.PasswordHash == "" {
		logger.ExitMethodWithError("authService.Login", domain.ErrInvalidCredentials)
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.ExitMethodWithError("authService.Login", domain.ErrInvalidCredentials)
		return nil, nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err)
		return nil, nil, err
	}
	logger.ExitMethod("authService.Login", "userID", user.ID)
	return user, tokens, nil
}

func (s *authService) RefreshToken(ctx context.Context, userID int32) (*AuthTokens, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return s.generateTokens(user)
}

// Logout is an acknowledgement only; tokens are stateless and expire on
// their own.
func (s *authService) Logout(ctx context.Context, userID int32) error {
	logger.InfoContext(ctx, "User logged out", "userID", userID)
	return nil
}

func (s *authService) Me(ctx context.Context, userID int32) (*domain.User, int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	balance, err := s.ledgerRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return user, balance, nil
}

func (s *authService) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	if bearer == "" {
		return nil, domain.ErrUnauthorized
	}
	if s.verifier != nil {
		return s.authenticateExternal(ctx, bearer)
	}

	claims, err := s.tokenManager.ValidateToken(bearer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      domain.UserRole(claims.Role),
		TokenType: claims.Type,
	}, nil
}

func (s *authService) authenticateExternal(ctx context.Context, idToken string) (*Principal, error) {
	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByExternalUID(ctx, identity.UID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.provision(ctx, identity)
	}
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: security.TokenTypeAccess,
	}, nil
}

func (s *authService) provision(ctx context.Context, identity *security.Identity) (*domain.User, error) {
	uid := identity.UID
	user := &domain.User{
		Email:       identity.Email,
		Name:        identity.Name,
		Role:        s.roleFor(identity.Email),
		ExternalUID: &uid,
	}
	if user.Email == "" {
		user.Email = uid + "@users.noreply"
	}

	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, domain.ErrEmailTaken) {
		// Another request provisioned the same identity first.
		return s.userRepo.GetByExternalUID(ctx, uid)
	}
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Provisioned user from identity provider", "userID", user.ID)
	return user, nil
}

func (s *authService) generateTokens(user *domain.User) (*AuthTokens, error) {
	access, err := s.tokenManager.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokenManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
