package auth

import (
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/avillega/tablero/internal/config"
	"github.com/avillega/tablero/internal/database/users"
	"github.com/avillega/tablero/internal/entities"
)

// Validation limits carried over from the signup and login forms.
const (
	MinUsernameLength = 4
	MaxUsernameLength = 100
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must never distinguish the two in user-visible
	// output, to avoid username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameLength   = errors.New("username must be 4-100 characters")
	ErrPasswordLength   = errors.New("password must be 6-128 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Service implements the signup and login decisions over the user repository.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Signup validates the submitted fields, hashes the password and creates the
// user. It does not log the user in. Returns users.ErrDuplicateUsername if
// the name is taken, including when a concurrent signup wins the race: the
// unique index on username decides at insert time.
func (s *Service) Signup(username, password, confirmPassword string) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	// Limits are in characters, not bytes, so multibyte names count correctly
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, ErrUsernameLength
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, ErrPasswordLength
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	// Friendly pre-check; the insert below is still the authority.
	exists, err := s.users.UsernameExists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, users.ErrDuplicateUsername
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.CreateUser(username, passwordHash)
}

// Authenticate validates credentials and returns the user. All failures are
// reported as ErrInvalidCredentials; storage problems are logged but still
// reported generically so nothing about the store leaks to the client.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("auth: user lookup failed: %v", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID. Used when resolving a session.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetUserByID(id)
}

// GetUserByUsername retrieves a user by username. Used when resolving a
// verified token subject.
func (s *Service) GetUserByUsername(username string) (*entities.User, error) {
	return s.users.GetUserByUsername(username)
}
