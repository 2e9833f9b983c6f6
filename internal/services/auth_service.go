package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/session"
)

// AuthService handles registration, login and session tokens for users,
// merchants and administrators.
type AuthService struct {
	userRepo     repositories.UserRepository
	merchantRepo repositories.MerchantRepository
	adminRepo    repositories.AdminRepository
	sessions     session.Store
	jwtSecret    []byte
	sessionTTL   time.Duration
}

// NewAuthService creates a new AuthService. Tokens and sessions live for ttl.
func NewAuthService(userRepo repositories.UserRepository, merchantRepo repositories.MerchantRepository, adminRepo repositories.AdminRepository, sessions session.Store, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		adminRepo:    adminRepo,
		sessions:     sessions,
		jwtSecret:    []byte(jwtSecret),
		sessionTTL:   ttl,
	}
}

// RegisterUserInput is the sign-up form of a user.
type RegisterUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=64"`
	Name     string `json:"name" validate:"required,max=50"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// RegisterMerchantInput is the sign-up form of a merchant.
type RegisterMerchantInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=64"`
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,max=50"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// Credentials is a login form.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterUser registers a new user with a hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: in.Username, Password: hash, Name: in.Name, Phone: in.Phone}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// RegisterMerchant registers a merchant awaiting administrator approval.
func (s *AuthService) RegisterMerchant(ctx context.Context, in RegisterMerchantInput) (*models.Merchant, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if existing, err := s.merchantRepo.GetByUsername(ctx, in.Username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	merchant := &models.Merchant{
		Username: in.Username,
		Password: hash,
		Name:     in.Name,
		Category: in.Category,
		Phone:    in.Phone,
		Status:   models.MerchantPending,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to register merchant: %w", err)
	}
	return merchant, nil
}

// Login checks the credentials of an account of the given kind and opens a
// session for it. It returns the signed token.
func (s *AuthService) Login(ctx context.Context, kind session.Kind, cred Credentials) (string, session.Principal, error) {
	if err := validate.Struct(cred); err != nil {
		return "", session.Principal{}, validationError(err)
	}

	p, err := s.authenticate(ctx, kind, cred)
	if err != nil {
		return "", session.Principal{}, err
	}

	sid := uuid.NewString()
	if err := s.sessions.Save(ctx, sid, p, s.sessionTTL); err != nil {
		return "", session.Principal{}, fmt.Errorf("failed to open session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sid,
		"kind": string(kind),
		"exp":  now.Add(s.sessionTTL).Unix(),
		"iat":  now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", session.Principal{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, p, nil
}

func (s *AuthService) authenticate(ctx context.Context, kind session.Kind, cred Credentials) (session.Principal, error) {
	switch kind {
	case session.KindUser:
		user, err := s.userRepo.GetByUsername(ctx, cred.Username)
		if err != nil {
			return session.Principal{}, credentialsError(err)
		}
		if !checkPassword(user.Password, cred.Password) {
			return session.Principal{}, ErrInvalidCredentials
		}
		return session.Principal{Kind: kind, ID: user.ID, Name: user.Name}, nil

	case session.KindMerchant:
		merchant, err := s.merchantRepo.GetByUsername(ctx, cred.Username)
		if err != nil {
			return session.Principal{}, credentialsError(err)
		}
		if !checkPassword(merchant.Password, cred.Password) {
			return session.Principal{}, ErrInvalidCredentials
		}
		switch merchant.Status {
		case models.MerchantPending:
			return session.Principal{}, ErrMerchantPending
		case models.MerchantRejected:
			return session.Principal{}, ErrMerchantRejected
		}
		return session.Principal{Kind: kind, ID: merchant.ID, Name: merchant.Name}, nil

	case session.KindAdmin:
		admin, err := s.adminRepo.GetByUsername(ctx, cred.Username)
		if err != nil {
			return session.Principal{}, credentialsError(err)
		}
		if !checkPassword(admin.Password, cred.Password) {
			return session.Principal{}, ErrInvalidCredentials
		}
		return session.Principal{Kind: kind, ID: admin.ID, Name: admin.Name}, nil
	}
	return session.Principal{}, fmt.Errorf("unknown account kind %q", kind)
}

// ValidateToken parses a token and returns the principal of its live session.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (session.Principal, error) {
	sid, kind, err := s.parse(tokenString)
	if err != nil {
		return session.Principal{}, err
	}

	p, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return session.Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return session.Principal{}, err
	}
	if p.Kind != kind {
		return session.Principal{}, ErrUnauthenticated
	}
	return p, nil
}

// Logout ends the session behind a token. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	sid, _, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sid)
}

// EnsureAdmin creates the administrator account if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		log.Println("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin bootstrap.")
		return nil
	}
	_, err := s.adminRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.adminRepo.Create(ctx, &models.Admin{Username: username, Password: hash, Name: username}); err != nil {
		return fmt.Errorf("failed to create admin %s: %w", username, err)
	}
	log.Printf("Created admin account %s", username)
	return nil
}

func (s *AuthService) parse(tokenString string) (string, session.Kind, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return "", "", ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrUnauthenticated
	}
	sid, _ := claims["sid"].(string)
	kind, _ := claims["kind"].(string)
	if sid == "" || !session.Kind(kind).Valid() {
		return "", "", ErrUnauthenticated
	}
	return sid, session.Kind(kind), nil
}

func credentialsError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
