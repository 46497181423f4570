package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"barbook/pkg/config"
	apperrors "barbook/pkg/errors"
	"barbook/pkg/model"
	"barbook/pkg/sanitizer"

	"golang.org/x/crypto/bcrypt"
)

// Resolver maps a booking's contact details to a user account,
// provisioning a client account transparently when the phone number is
// unknown ("guest provisioning").
type Resolver interface {
	ResolveOrCreateClient(ctx context.Context, name, phone string) (string, error)
	LookupAccount(ctx context.Context, username string) (*model.Account, error)
}

type resolver struct {
	users     UserRepository
	directory AccountDirectory
	cfg       *config.Config
	now       func() time.Time
}

func NewResolver(users UserRepository, directory AccountDirectory, cfg *config.Config) Resolver {
	return &resolver{
		users:     users,
		directory: directory,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ResolveOrCreateClient returns the user ID backing the given phone number.
// The stored account name is authoritative; the booking keeps its own
// snapshot of whatever name the caller gave, so a differing name here is
// not an error.
func (r *resolver) ResolveOrCreateClient(ctx context.Context, name, phone string) (string, error) {
	existing, err := r.users.FindByPhone(ctx, phone)
	if err == nil {
		r.cfg.Log.Debug("Resolved existing client", "user_id", existing.ID, "username", existing.Username)
		return existing.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", apperrors.StoreUnavailable(err)
	}

	username, err := r.availableUsername(ctx, name)
	if err != nil {
		return "", err
	}

	passwordHash, err := r.temporaryPasswordHash()
	if err != nil {
		return "", apperrors.Internal("Failed to provision client account", err)
	}

	user := &model.User{
		Name:         sanitizer.NormalizeName(name),
		Username:     username,
		Email:        fmt.Sprintf("%s@barbershop.com", username),
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         model.RoleClient,
		IsActive:     true,
		CreatedAt:    r.now().UTC().Truncate(time.Millisecond),
	}

	if err := r.users.Insert(ctx, user); err != nil {
		return "", apperrors.StoreUnavailable(err)
	}

	r.cfg.Log.Info("Provisioned guest client account",
		"user_id", user.ID,
		"username", user.Username,
	)
	return user.ID, nil
}

func (r *resolver) availableUsername(ctx context.Context, name string) (string, error) {
	base := usernameFromName(name)
	if base == "" {
		base = "client"
	}

	_, err := r.users.FindByUsername(ctx, base)
	if errors.Is(err, ErrNotFound) {
		return base, nil
	}
	if err != nil {
		return "", apperrors.StoreUnavailable(err)
	}

	return collisionSuffix(base, r.now()), nil
}

// temporaryPasswordHash generates a throwaway credential for a provisioned
// account; the client resets it through the normal flow if they ever log in.
func (r *resolver) temporaryPasswordHash() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// LookupAccount finds which directory a username belongs to.
func (r *resolver) LookupAccount(ctx context.Context, username string) (*model.Account, error) {
	account, err := r.directory.LookupByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Account", username)
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return account, nil
}
