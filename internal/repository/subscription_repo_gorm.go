package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"linkbook/invitehub/internal/model"
)

type gormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository works with any gorm dialector; postgres in production, sqlite locally.
func NewGormSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &gormSubscriptionRepository{db: db}
}

func (r *gormSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	// Checked inside the caller's transaction when there is one; the primary key catches the rest.
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ?", sub.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	sub.Version = 1
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *gormSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormSubscriptionRepository) List(ctx context.Context) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := r.db.WithContext(ctx).Order("user_id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *gormSubscriptionRepository) Update(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND version = ?", sub.UserID, sub.Version).
		Updates(map[string]interface{}{
			"plan":           sub.Plan,
			"trial_end_date": sub.TrialEndDate,
			"referral_count": sub.ReferralCount,
			"invite_codes":   sub.InviteCodes,
			"version":        sub.Version + 1,
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	sub.Version++
	sub.UpdatedAt = now
	return nil
}

func (r *gormSubscriptionRepository) Transaction(ctx context.Context, fn func(ctx context.Context, tx SubscriptionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormSubscriptionRepository{db: tx})
	})
}
