package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/apierr"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, error)
	// SetContextFromToken validates the bearer token and attaches the caller's
	// identity to the context for downstream created_by/updated_by stamping.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.New(http.StatusBadRequest, "invalid_input", fmt.Errorf("a valid email is required"))
	}
	if len(input.Password) < 8 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_input", fmt.Errorf("password must be at least 8 characters"))
	}
	role := input.Role
	if role == "" {
		role = types.RoleEditor
	}
	if role != types.RoleAdmin && role != types.RoleEditor && role != types.RoleViewer {
		return nil, apierr.New(http.StatusBadRequest, "invalid_input", fmt.Errorf("invalid role %q", role))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	var out *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := as.userRepo.EmailExists(ctx, tx, email)
		if err != nil {
			return err
		}
		if exists {
			return apierr.New(http.StatusConflict, "email_taken", fmt.Errorf("email %q is already registered", email))
		}
		user := &types.User{
			ID:        uuid.New(),
			Email:     email,
			Password:  string(hash),
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Role:      role,
		}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	if len(users) == 0 {
		return "", apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid credentials"))
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid credentials"))
	}
	return as.generateAccessToken(user)
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("invalid token subject")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       email,
		Role:        role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }
