package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

type studentDirectory interface {
	Students() []models.Student
}

type loginMetrics interface {
	RecordLogin(role models.Role)
}

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService opens and closes sessions. Login accepts any name and email;
// there is no credential check.
type AuthService struct {
	students  studentDirectory
	metrics   loginMetrics
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students studentDirectory, metrics loginMetrics, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &AuthService{
		students:  students,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}
}

// Login builds the session user and issues its token.
//
// A student session whose email matches a registered Student takes that
// student's id, so records marked against the student show on the student's
// dashboard. Any other session gets a fresh id.
func (s *AuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = models.Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user := models.User{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
	}
	if user.Role == models.RoleStudent {
		user.Program = strings.TrimSpace(req.Program)
		if student, ok := s.matchStudent(user.Email); ok {
			user.ID = student.ID
			if user.Program == "" {
				user.Program = student.Program
			}
		}
	}

	issuedAt := s.now().UTC()
	token, err := s.sign(user, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}
	if s.metrics != nil {
		s.metrics.RecordLogin(user.Role)
	}
	s.logger.Info("session opened", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        user,
	}, nil
}

func (s *AuthService) matchStudent(email string) (models.Student, bool) {
	if s.students == nil {
		return models.Student{}, false
	}
	for _, st := range s.students.Students() {
		if strings.EqualFold(strings.TrimSpace(st.Email), email) {
			return st, true
		}
	}
	return models.Student{}, false
}

func (s *AuthService) sign(user models.User, issuedAt time.Time) (string, error) {
	claims := models.JWTClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

// ValidateToken parses a session token and rejects logged-out sessions.
func (s *AuthService) ValidateToken(token string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}
	if !claims.User.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session role")
	}
	if s.isRevoked(claims.ID) {
		return nil, appErrors.Clone(appErrors.ErrSessionRevoked, "")
	}
	return claims, nil
}

// Logout revokes the session until its token would have expired anyway.
func (s *AuthService) Logout(_ context.Context, claims *models.JWTClaims) error {
	if claims == nil || claims.ID == "" {
		return appErrors.ErrUnauthorized
	}
	expiry := s.now().Add(s.config.Expiry)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, until := range s.revoked {
		if now.After(until) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = expiry
	s.logger.Info("session closed", zap.String("user_id", claims.User.ID))
	return nil
}

func (s *AuthService) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[id]
	return ok && !s.now().After(until)
}
