package tui

import (
	"context"

	"github.com/collectorscorner/corner/pkg/client"
	"github.com/collectorscorner/corner/pkg/domain"
)

// API is the part of *client.Client the views use.
type API interface {
	Login(ctx context.Context, username, password string) (domain.Session, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, username, email, password string) (*client.RegisterResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) error

	GetUser(ctx context.Context) (*domain.UserProfile, error)
	UpdateNickname(ctx context.Context, nickname string) error
	UpdateEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, image domain.Upload) error

	CreateCollection(ctx context.Context, req client.CreateCollectionRequest) error
	CreateCard(ctx context.Context, req client.CreateCardRequest) error
	ListCards(ctx context.Context, collectionID int64) (*client.CollectionCards, error)

	ImageURL(ref string) string
}

var _ API = (*client.Client)(nil)
