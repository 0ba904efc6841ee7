package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/metrics"
	"linkbook/invitehub/internal/model"
	"linkbook/invitehub/internal/repository"
)

type SubscriptionService interface {
	// Provision creates the signup trial record, with a fresh ledger, for a user who joined without a code.
	Provision(ctx context.Context, userID string) (*model.Subscription, error)
	Get(ctx context.Context, userID string) (*model.Subscription, error)
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	ledger *ledgerIssuer
	cfg    config.InviteConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	index repository.CodeIndex,
	inviteCfg config.InviteConfig,
	logger *zap.Logger,
) SubscriptionService {
	return newSubscriptionService(repo, index, inviteCfg, logger)
}

func newSubscriptionService(
	repo repository.SubscriptionRepository,
	index repository.CodeIndex,
	inviteCfg config.InviteConfig,
	logger *zap.Logger,
) *subscriptionService {
	cfg := withInviteDefaults(inviteCfg)
	return &subscriptionService{
		repo:   repo,
		ledger: newLedgerIssuer(index, cfg),
		cfg:    cfg,
		logger: logger.Named("subscription"),
		now:    time.Now,
	}
}

func (s *subscriptionService) Provision(ctx context.Context, userID string) (*model.Subscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingFields
	}

	// 1. One record per user
	_, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return nil, ErrAlreadySubscribed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err)
	}

	// 2. Reserve the starter ledger
	now := s.now().UTC()
	ledger, err := s.ledger.issue(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	// 3. Persist, releasing the reservations if the record cannot be written
	sub := newTrialSubscription(userID, nil, ledger, now, s.cfg.TrialDuration)
	if err := s.repo.Create(ctx, sub); err != nil {
		if relErr := s.ledger.release(ctx, ledger); relErr != nil {
			s.logger.Warn("failed to release reserved invite codes", zap.String("user", userID), zap.Error(relErr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, storeError(err)
	}

	metrics.InviteCodesIssued.Add(float64(len(ledger)))
	s.logger.Info("subscription provisioned", zap.String("user", userID), zap.Time("trial_end", sub.TrialEndDate))
	return sub, nil
}

func (s *subscriptionService) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, storeError(err)
	}
	return sub, nil
}

var _ SubscriptionService = (*subscriptionService)(nil)
