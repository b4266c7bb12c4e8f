package user

import (
	"context"
	"errors"
	"fmt"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"modelPilot/pkg/utils"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
}

type TokenSession struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// TokenRepository contract interface
type TokenRepository interface {
	StoreToken(ctx context.Context, userID, token string, data TokenSession, ttl time.Duration) error
	GetTokenData(ctx context.Context, userID string) (*TokenSession, error)
	ValidateToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, userID string) error
}

type userService struct {
	userRepo  UserRepository
	validate  *validator.Validate
	tokenRepo TokenRepository
}

const tokenTTL = 24 * time.Hour

func NewUserService(
	userRepo UserRepository,
	validate *validator.Validate,
	tokenRepo TokenRepository,
) *userService {
	return &userService{
		userRepo:  userRepo,
		validate:  validate,
		tokenRepo: tokenRepo,
	}
}

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

var validRoles = map[string]bool{
	RoleOperator: true,
	RoleAdmin:    true,
}

func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.User{}, errors.New("invalid email format")
	}

	if err := s.validate.Var(user.Password, "required,min=6"); err != nil {
		logger.Error("Invalid user password", err)
		return domain.User{}, errors.New("password must be at least 6 characters")
	}

	// Check if email already exists
	existingUser, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err == nil && existingUser.ID > 0 {
		logger.Error("Email already exists")
		return domain.User{}, errors.New("email already exists")
	}

	passwordHash, err := utils.HashPassword(user.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	role := user.Role
	if role == "" {
		role = RoleOperator
	}
	if !validRoles[role] {
		return domain.User{}, errors.New("invalid role")
	}

	newUser := domain.User{
		FullName: user.FullName,
		Email:    user.Email,
		Password: string(passwordHash),
		Role:     role,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user")
		return domain.User{}, err
	}

	newUser.Password = ""
	return newUser, nil
}

func (s *userService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (string, domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Invalid user credentials", err)
		return "", domain.User{}, err
	}

	ok := utils.CheckPassword(password, user.Password)
	if !ok {
		logger.Error("User password incorrect")
		return "", domain.User{}, errors.New("incorrect password")
	}

	userIdStr := strconv.FormatUint(uint64(user.ID), 10)
	token, err := utils.GenerateJWT(userIdStr, user.Role)
	if err != nil {
		logger.Error("Failed to generated token", err)
		return "", domain.User{}, errors.New("failed to generate token")
	}

	now := time.Now()
	session := TokenSession{
		UserID:    userIdStr,
		Role:      user.Role,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(tokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := s.tokenRepo.StoreToken(ctx, userIdStr, token, session, tokenTTL); err != nil {
		logger.Error("Failed to store token session", err)
		return "", domain.User{}, errors.New("failed to store token session")
	}

	user.Password = ""
	return token, user, nil
}

// ValidateTokenFromRedis checks the token against the session store.
func (s *userService) ValidateTokenFromRedis(ctx context.Context, token string) (string, error) {
	userID, err := s.tokenRepo.ValidateToken(ctx, token)
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (s *userService) RefreshToken(ctx context.Context, oldToken, ipAddress, userAgent string) (string, domain.User, error) {
	userIdStr, err := s.tokenRepo.ValidateToken(ctx, oldToken)
	if err != nil {
		logger.Error("Invalid token for refresh", err)
		return "", domain.User{}, errors.New("invalid or expired token")
	}

	userID, err := strconv.ParseUint(userIdStr, 10, 64)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("invalid user id in session: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, uint(userID))
	if err != nil {
		logger.Error("Failed to get user for refresh", err)
		return "", domain.User{}, err
	}

	newToken, err := utils.GenerateJWT(userIdStr, user.Role)
	if err != nil {
		logger.Error("Failed to generated token", err)
		return "", domain.User{}, errors.New("failed to generate token")
	}

	if err := s.tokenRepo.DeleteToken(ctx, userIdStr); err != nil {
		logger.Warn("Failed to delete old token session", err)
	}

	now := time.Now()
	session := TokenSession{
		UserID:    userIdStr,
		Role:      user.Role,
		Token:     newToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(tokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := s.tokenRepo.StoreToken(ctx, userIdStr, newToken, session, tokenTTL); err != nil {
		logger.Error("Failed to store token session", err)
		return "", domain.User{}, errors.New("failed to store token session")
	}

	user.Password = ""
	return newToken, user, nil
}

// Logout invalidates the stored session for the user.
func (s *userService) Logout(ctx context.Context, userID uint, token string) error {
	userIdStr := strconv.FormatUint(uint64(userID), 10)

	session, err := s.tokenRepo.GetTokenData(ctx, userIdStr)
	if err != nil {
		logger.Error("Failed to get token session", err)
		return errors.New("session not found")
	}

	if session.Token != token {
		return errors.New("token does not match active session")
	}

	if err := s.tokenRepo.DeleteToken(ctx, userIdStr); err != nil {
		logger.Error("Failed to delete token session", err)
		return err
	}

	return nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by ID", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// GetAllUsers retrieves all users
func (s *userService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to get all users", err)
		return nil, err
	}

	for i := range users {
		users[i].Password = ""
	}

	return users, nil
}

// UpdateUser updates user information
func (s *userService) UpdateUser(ctx context.Context, id uint, updateData *domain.User) (domain.User, error) {
	existingUser, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("User not found for update", err)
		return domain.User{}, err
	}

	if updateData.FullName != "" {
		existingUser.FullName = updateData.FullName
	}

	if updateData.Password != "" {
		// Validate password
		if err := s.validate.Var(updateData.Password, "required,min=6"); err != nil {
			logger.Error("Invalid password", err)
			return domain.User{}, errors.New("password must be at least 6 characters")
		}

		// Hash new password
		passwordHash, err := utils.HashPassword(updateData.Password)
		if err != nil {
			logger.Error("Failed to hash password", err)
			return domain.User{}, errors.New("failed to hash password")
		}
		existingUser.Password = string(passwordHash)
	}

	if err := s.userRepo.Update(ctx, &existingUser); err != nil {
		logger.Error("Failed to update user", err)
		return domain.User{}, err
	}

	updatedUser, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to fetch updated user", err)
		return domain.User{}, err
	}

	updatedUser.Password = ""
	return updatedUser, nil
}

// DeleteUser removes a user account
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete user", err)
		return err
	}

	return nil
}
