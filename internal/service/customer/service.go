package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/domain"
	custrepo "storefront/internal/repository/customer"
	tokenrepo "storefront/internal/repository/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidInput wraps signup validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Service handles customer signup, login and logout.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	logger      *zap.Logger
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
}

func New(repo custrepo.Repository, tokens tokenrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		logger:      logger.Named("customer"),
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	Ward        string `json:"ward"`
	City        string `json:"city"`
	Country     string `json:"country"`
	PostalCode  string `json:"postalCode"`
}

// Session is the pair of tokens handed out by Login and Refresh.
type Session struct {
	Customer     *domain.Customer
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = email[:strings.IndexByte(email, '@')]
	}

	c, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(in.Phone),
		AddressLine:  strings.TrimSpace(in.AddressLine),
		Ward:         strings.TrimSpace(in.Ward),
		City:         strings.TrimSpace(in.City),
		Country:      strings.TrimSpace(in.Country),
		PostalCode:   strings.TrimSpace(in.PostalCode),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer signed up", zap.String("customer_id", c.ID))
	return c, nil
}

// Login validates credentials and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, c)
}

// Refresh exchanges a refresh token for a new token pair. The old refresh token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	meta, ok := s.tokens.Validate(ctx, refreshToken, tokenrepo.KindRefresh)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.issue(ctx, c)
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	meta, ok := s.tokens.Validate(ctx, token, tokenrepo.KindAccess)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// Logout revokes the access token. Revoking an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func (s *Service) issue(ctx context.Context, c *domain.Customer) (*Session, error) {
	access, err := s.tokens.Issue(ctx, c.ID, tokenrepo.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(ctx, c.ID, tokenrepo.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Customer:     c,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTLSeconds(),
	}, nil
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
