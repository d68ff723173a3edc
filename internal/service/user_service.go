package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/AdamBeresnev/cupmaker/internal/utils"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/markbates/goth"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
)

type UserService struct {
	store *store.UserStore
	clock clockwork.Clock
}

func NewUserService(store *store.UserStore, clock clockwork.Clock) *UserService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserService{store: store, clock: clock}
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) validate() error {
	name := strings.TrimSpace(c.Username)
	if len(name) < minUsernameLength || len(name) > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d to %d characters", bracket.ErrInvalidInput, minUsernameLength, maxUsernameLength)
	}
	if len(c.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", bracket.ErrInvalidInput, minPasswordLength)
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, creds Credentials) (*users.User, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(creds.Username)

	_, err := s.store.GetLocalUser(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &users.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: utils.Ptr(string(hash)),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	user, err := s.store.GetLocalUser(ctx, strings.TrimSpace(creds.Username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(utils.OrZero(user.PasswordHash)), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateGuest makes a throwaway account so people can join without signing up
func (s *UserService) CreateGuest(ctx context.Context, name string) (*users.User, error) {
	id := uuid.New()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest-" + id.String()[:8]
	}
	if len(name) > maxUsernameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", bracket.ErrInvalidInput, maxUsernameLength)
	}

	guest := &users.User{
		ID:        id,
		Username:  name,
		IsGuest:   true,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	username := gothUser.NickName
	if username == "" {
		username = gothUser.Name
	}

	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)
	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != username {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = username
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   utils.Ptr(gothUser.Provider),
			ProviderID: utils.Ptr(gothUser.UserID),
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
			CreatedAt:  s.clock.Now().UTC(),
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, err
		}
		return newUser, nil
	}

	return nil, err
}
