package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/model"
	"linkbook/invitehub/internal/repository"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	repo    repository.SubscriptionRepository
	index   repository.CodeIndex
	invites *inviteService
	subs    *subscriptionService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.NewSQLiteDB(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewGormSubscriptionRepository(db)
	return newFixtureWithRepo(t, db, repo, config.IndexConfig{})
}

func newFixtureWithRepo(t *testing.T, db *gorm.DB, repo repository.SubscriptionRepository, indexCfg config.IndexConfig) *fixture {
	t.Helper()
	index := repository.NewMemoryCodeIndex()
	logger := zaptest.NewLogger(t)

	invites := newInviteService(repo, index, config.InviteConfig{}, indexCfg, logger)
	invites.now = func() time.Time { return testNow }
	subs := newSubscriptionService(repo, index, config.InviteConfig{}, logger)
	subs.now = func() time.Time { return testNow }

	return &fixture{db: db, repo: repo, index: index, invites: invites, subs: subs}
}

// seedInviter stores a trial record holding the given unused codes and indexes them.
func (f *fixture) seedInviter(t *testing.T, userID string, trialEnd time.Time, codes ...string) {
	t.Helper()
	f.seedUnindexed(t, userID, trialEnd, codes...)
	for _, c := range codes {
		ok, err := f.index.Reserve(context.Background(), c, userID)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func (f *fixture) seedUnindexed(t *testing.T, userID string, trialEnd time.Time, codes ...string) {
	t.Helper()
	sub := &model.Subscription{
		UserID:         userID,
		Plan:           model.PlanTrial,
		TrialStartDate: trialEnd.Add(-15 * 24 * time.Hour),
		TrialEndDate:   trialEnd,
	}
	for _, c := range codes {
		sub.InviteCodes = append(sub.InviteCodes, model.InviteCode{Code: c, CreatedAt: sub.TrialStartDate})
	}
	require.NoError(t, f.repo.Create(context.Background(), sub))
}

func (f *fixture) get(t *testing.T, userID string) *model.Subscription {
	t.Helper()
	sub, err := f.repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return sub
}

// sequenceGenerator hands out the given codes in order, then fails.
func sequenceGenerator(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(codes) {
			return "", errors.New("sequence exhausted")
		}
		i++
		return codes[i-1], nil
	}
}

func codeSequence(prefix string, n int) []string {
	const alphabet = "ABCDEFGHJK"
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("LB-%s%c%c", prefix, alphabet[i/10%10], alphabet[i%10]))
	}
	return out
}

// conflictingRepo makes the first n ledger updates inside a transaction fail
// with a version conflict, as a concurrent writer would.
type conflictingRepo struct {
	repository.SubscriptionRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingRepo) Transaction(ctx context.Context, fn func(ctx context.Context, tx repository.SubscriptionRepository) error) error {
	return r.SubscriptionRepository.Transaction(ctx, func(ctx context.Context, tx repository.SubscriptionRepository) error {
		return fn(ctx, &conflictingTx{SubscriptionRepository: tx, parent: r})
	})
}

type conflictingTx struct {
	repository.SubscriptionRepository
	parent *conflictingRepo
}

func (t *conflictingTx) Update(ctx context.Context, sub *model.Subscription) error {
	t.parent.mu.Lock()
	if t.parent.conflicts > 0 {
		t.parent.conflicts--
		t.parent.mu.Unlock()
		return repository.ErrVersionConflict
	}
	t.parent.mu.Unlock()
	return t.SubscriptionRepository.Update(ctx, sub)
}

// failingCreateRepo fails every Create issued inside a transaction.
type failingCreateRepo struct {
	repository.SubscriptionRepository
}

func (r *failingCreateRepo) Transaction(ctx context.Context, fn func(ctx context.Context, tx repository.SubscriptionRepository) error) error {
	return r.SubscriptionRepository.Transaction(ctx, func(ctx context.Context, tx repository.SubscriptionRepository) error {
		return fn(ctx, &failingCreateTx{SubscriptionRepository: tx})
	})
}

type failingCreateTx struct {
	repository.SubscriptionRepository
}

func (t *failingCreateTx) Create(context.Context, *model.Subscription) error {
	return errors.New("disk full")
}

// brokenRepo fails every call.
type brokenRepo struct{}

var errBroken = errors.New("connection refused")

func (brokenRepo) Create(context.Context, *model.Subscription) error {
	return errBroken
}

func (brokenRepo) GetByUserID(context.Context, string) (*model.Subscription, error) {
	return nil, errBroken
}

func (brokenRepo) List(context.Context) ([]model.Subscription, error) {
	return nil, errBroken
}

func (brokenRepo) Update(context.Context, *model.Subscription) error {
	return errBroken
}

func (brokenRepo) Transaction(context.Context, func(context.Context, repository.SubscriptionRepository) error) error {
	return errBroken
}
