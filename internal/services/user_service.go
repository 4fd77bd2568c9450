package services

import (
	"context"
	"errors"
	"log"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidPassword    = errors.New("invalid password")
)

type accountStore interface {
	storage.UserStore
	storage.AdminStore
}

type UserService struct {
	store  accountStore
	hasher *PasswordHasher
}

func NewUserService(store accountStore, hasher *PasswordHasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrMissingCredentials
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, req.Email, hash)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, req.Password)
	if err != nil {
		log.Printf("[users] unreadable password hash for user=%d: %v", user.ID, err)
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	req := models.UserEmailRequest{Email: email}
	req.Normalize()
	return req.Email
}

func (s *UserService) Ban(ctx context.Context, email string) error {
	return s.setBanned(ctx, email, true)
}

func (s *UserService) Unban(ctx context.Context, email string) error {
	return s.setBanned(ctx, email, false)
}

func (s *UserService) setBanned(ctx context.Context, email string, banned bool) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingCredentials
	}
	if err := s.store.SetUserBanned(ctx, email, banned); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Promote grants admin rights. Promoting an admin again is a no-op.
func (s *UserService) Promote(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.store.AddAdmin(ctx, user.ID)
}

func (s *UserService) Demote(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.store.RemoveAdmin(ctx, user.ID)
}
