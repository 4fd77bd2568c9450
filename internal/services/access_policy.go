package services

import (
	"context"
	"errors"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

var (
	ErrBanned    = errors.New("account banned")
	ErrForbidden = errors.New("forbidden")
)

// AccessPolicy applies the ban check and then the admin check to a resolved identity.
// Both are existence checks against the store.
type AccessPolicy struct {
	store accountStore
}

func NewAccessPolicy(store accountStore) *AccessPolicy {
	return &AccessPolicy{store: store}
}

// Resolve returns the caller's access. A banned user is never reported as admin.
func (p *AccessPolicy) Resolve(ctx context.Context, email string) (models.Access, error) {
	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Access{}, ErrUserNotFound
		}
		return models.Access{}, err
	}
	if user.IsBanned {
		return models.Access{UserID: user.ID, Banned: true}, nil
	}

	admin, err := p.store.IsAdmin(ctx, user.ID)
	if err != nil {
		return models.Access{}, err
	}
	return models.Access{UserID: user.ID, Admin: admin}, nil
}

// Authorize resolves access and fails with ErrBanned, or with ErrForbidden when
// requireAdmin is set and the caller is not an admin.
func (p *AccessPolicy) Authorize(ctx context.Context, email string, requireAdmin bool) (models.Access, error) {
	access, err := p.Resolve(ctx, email)
	if err != nil {
		return access, err
	}
	if access.Banned {
		return access, ErrBanned
	}
	if requireAdmin && !access.Admin {
		return access, ErrForbidden
	}
	return access, nil
}
