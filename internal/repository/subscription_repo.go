package repository

import (
	"context"
	"errors"

	"linkbook/invitehub/internal/model"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// SubscriptionRepository stores one subscription record per user.
//
// Update is a conditional write: it succeeds only when the stored Version equals
// sub.Version, and bumps sub.Version on success. Create sets Version to 1.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	// List returns every record ordered by user id.
	List(ctx context.Context) ([]model.Subscription, error)
	Update(ctx context.Context, sub *model.Subscription) error
	// Transaction runs fn against a repository bound to a single transaction.
	// fn must use the ctx and repository it is given.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx SubscriptionRepository) error) error
}
