package service

import (
	"context"
	"log"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/storage"

	"github.com/google/uuid"
)

const anonymousUserName = "Anonymous User"

type UserService struct {
	store *storage.Store
	NewID func() string
}

func NewUserService(store *storage.Store) *UserService {
	return &UserService{store: store, NewID: uuid.NewString}
}

// Current returns the single user of this installation, creating an
// anonymous one on first use.
func (s *UserService) Current(ctx context.Context) domain.User {
	user := storage.Get(ctx, s.store, storage.UserKey, domain.User{})
	if user.ID != "" {
		return user
	}

	user = domain.User{ID: s.NewID(), IsAnonymous: true, Name: anonymousUserName}
	if err := storage.Set(ctx, s.store, storage.UserKey, user); err != nil {
		log.Printf("Could not persist current user %s: %v", user.ID, err)
	}
	return user
}
