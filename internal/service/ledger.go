package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/model"
	"linkbook/invitehub/internal/repository"
	"linkbook/invitehub/pkg/crypto"
)

const (
	defaultCodesPerUser    = 5
	defaultTrialDuration   = 15 * 24 * time.Hour
	defaultExtension       = 2 * 24 * time.Hour
	defaultClaimAttempts   = 3
	defaultReserveAttempts = 10
)

// withInviteDefaults fills zero-valued invite settings.
func withInviteDefaults(cfg config.InviteConfig) config.InviteConfig {
	if cfg.CodesPerUser <= 0 {
		cfg.CodesPerUser = defaultCodesPerUser
	}
	if cfg.TrialDuration <= 0 {
		cfg.TrialDuration = defaultTrialDuration
	}
	if cfg.Extension <= 0 {
		cfg.Extension = defaultExtension
	}
	if cfg.ClaimAttempts <= 0 {
		cfg.ClaimAttempts = defaultClaimAttempts
	}
	if cfg.ReserveAttempts <= 0 {
		cfg.ReserveAttempts = defaultReserveAttempts
	}
	return cfg
}

// ledgerIssuer generates invite codes and reserves each one in the code index,
// so a code is never handed to two users.
type ledgerIssuer struct {
	index    repository.CodeIndex
	generate func() (string, error)
	size     int
	attempts int
}

func newLedgerIssuer(index repository.CodeIndex, cfg config.InviteConfig) *ledgerIssuer {
	return &ledgerIssuer{
		index:    index,
		generate: crypto.GenerateInviteCode,
		size:     cfg.CodesPerUser,
		attempts: cfg.ReserveAttempts,
	}
}

func (l *ledgerIssuer) issue(ctx context.Context, ownerUID string, now time.Time) (model.InviteCodes, error) {
	codes := make(model.InviteCodes, 0, l.size)
	for len(codes) < l.size {
		code, err := l.reserve(ctx, ownerUID)
		if err != nil {
			_ = l.release(ctx, codes)
			return nil, err
		}
		codes = append(codes, model.InviteCode{Code: code, CreatedAt: now})
	}
	return codes, nil
}

func (l *ledgerIssuer) reserve(ctx context.Context, ownerUID string) (string, error) {
	for i := 0; i < l.attempts; i++ {
		code, err := l.generate()
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		ok, err := l.index.Reserve(ctx, code, ownerUID)
		if err != nil {
			return "", fmt.Errorf("%w: reserve invite code: %v", ErrStore, err)
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// release drops reservations for a ledger that was never persisted.
func (l *ledgerIssuer) release(ctx context.Context, codes model.InviteCodes) error {
	var errs []error
	for _, c := range codes {
		if err := l.index.Release(ctx, c.Code); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newTrialSubscription(userID string, referredBy *string, codes model.InviteCodes, now time.Time, trial time.Duration) *model.Subscription {
	ledger := make(model.InviteCodes, len(codes))
	copy(ledger, codes)
	return &model.Subscription{
		UserID:         userID,
		Plan:           model.PlanTrial,
		TrialStartDate: now,
		TrialEndDate:   now.Add(trial),
		ReferredBy:     referredBy,
		ReferralCount:  0,
		InviteCodes:    ledger,
	}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", ErrStore, err)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorCode(err)
}
