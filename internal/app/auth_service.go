package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gopherauth/internal/event"
	"gopherauth/internal/model"
	"gopherauth/internal/pkg/jwtutil"
	"gopherauth/internal/repository"
	"gopherauth/internal/schema"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrUserNotFound      = errors.New("user not found")
)

type UserStore interface {
	Create(user *model.User) error
	GetByID(id uint) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	DeleteByID(id uint) (bool, error)
}

type ProfileCache interface {
	Get(ctx context.Context, userID uint) (*schema.UserResponse, bool, error)
	Set(ctx context.Context, profile schema.UserResponse) error
	Delete(ctx context.Context, userID uint) error
}

type UserEventPublisher interface {
	PublishUserEvent(ctx context.Context, evt event.UserEvent) error
}

type AuthService struct {
	users         UserStore
	profiles      ProfileCache
	events        UserEventPublisher
	log           logrus.FieldLogger
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
}

type AuthOptions struct {
	JWTSecret     string
	JWTExpiration time.Duration
	BcryptCost    int
	// Profiles and Events are optional.
	Profiles ProfileCache
	Events   UserEventPublisher
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	User  schema.UserResponse
}

func NewAuthService(users UserStore, log logrus.FieldLogger, opts AuthOptions) *AuthService {
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:         users,
		profiles:      opts.Profiles,
		events:        opts.Events,
		log:           log.WithField("component", "auth_service"),
		jwtSecret:     opts.JWTSecret,
		jwtExpiration: opts.JWTExpiration,
		bcryptCost:    cost,
	}
}

// Register validates a raw sign-up payload, stores the user with a bcrypt hash
// and returns a token with the public projection. Validation failures come back
// as *schema.ValidationError.
func (s *AuthService) Register(ctx context.Context, raw map[string]any) (*AuthResult, error) {
	input, err := schema.ValidateRegistration(raw)
	if err != nil {
		return nil, err
	}

	existingByName, err := s.users.GetByUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.users.GetByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       input.Username,
		Email:          input.Email,
		HashedPassword: hash,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, s.duplicateCause(input)
		}
		return nil, err
	}

	profile, err := schema.NewUserResponse(user)
	if err != nil {
		return nil, fmt.Errorf("project created user failed: %w", err)
	}

	s.publish(ctx, event.TypeUserRegistered, profile)
	s.log.WithField("user_id", profile.ID).Info("user registered")

	return s.issue(profile)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	stored, err := schema.NewUserInDB(user)
	if err != nil {
		return nil, fmt.Errorf("project stored user failed: %w", err)
	}
	if !passwordMatches(stored.HashedPassword(), input.Password) {
		return nil, ErrInvalidCredential
	}

	s.log.WithField("user_id", stored.ID).Debug("user logged in")
	return s.issue(stored.Public())
}

// GetUserByID returns nil when the user does not exist.
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*schema.UserResponse, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	if s.profiles != nil {
		cached, ok, err := s.profiles.Get(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("profile cache read failed")
		}
		if ok {
			return cached, nil
		}
	}

	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	profile, err := schema.NewUserResponse(user)
	if err != nil {
		return nil, fmt.Errorf("project user failed: %w", err)
	}
	if s.profiles != nil {
		if err := s.profiles.Set(ctx, profile); err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("profile cache write failed")
		}
	}
	return &profile, nil
}

// DeleteUser removes a user record. It is reserved for administrative callers.
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}

	user, err := s.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	removed, err := s.users.DeleteByID(id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrUserNotFound
	}

	if s.profiles != nil {
		if err := s.profiles.Delete(ctx, id); err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("profile cache evict failed")
		}
	}
	if profile, err := schema.NewUserResponse(user); err == nil {
		s.publish(ctx, event.TypeUserDeleted, profile)
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

func (s *AuthService) issue(profile schema.UserResponse) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, profile.ID, profile.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: profile}, nil
}

// publish is best effort; the user record is already committed.
func (s *AuthService) publish(ctx context.Context, eventType string, profile schema.UserResponse) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserEvent(ctx, event.NewUserEvent(eventType, profile)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"type": eventType, "user_id": profile.ID}).Warn("publish user event failed")
	}
}

// duplicateCause resolves which unique index rejected a concurrent insert.
func (s *AuthService) duplicateCause(input schema.UserCreate) error {
	if existing, err := s.users.GetByUsername(input.Username); err == nil && existing != nil {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
