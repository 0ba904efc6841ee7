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
	"linkbook/invitehub/pkg/crypto"
)

type ValidateResult struct {
	InviterUID string
}

type RedeemResult struct {
	InviterUID          string
	InviterExtended     bool
	InviterTrialEndDate time.Time
	// TrialEndDate is the redeeming user's trial end.
	TrialEndDate time.Time
}

// InviteCodeEntry is a ledger entry together with the user that owns it.
type InviteCodeEntry struct {
	OwnerUID string `json:"ownerUid"`
	model.InviteCode
}

type InviteCodeFilter struct {
	Used *bool
}

type ReindexReport struct {
	Records    int `json:"records"`
	Codes      int `json:"codes"`
	Duplicates int `json:"duplicates"`
}

type InviteService interface {
	Validate(ctx context.Context, code string) (*ValidateResult, error)
	Redeem(ctx context.Context, code string, newUserUID string) (*RedeemResult, error)
	ListInviteCodes(ctx context.Context, filter InviteCodeFilter) ([]InviteCodeEntry, error)
	RebuildIndex(ctx context.Context) (*ReindexReport, error)
}

type inviteService struct {
	repo         repository.SubscriptionRepository
	index        repository.CodeIndex
	ledger       *ledgerIssuer
	cfg          config.InviteConfig
	scanFallback bool
	logger       *zap.Logger
	now          func() time.Time
}

func NewInviteService(
	repo repository.SubscriptionRepository,
	index repository.CodeIndex,
	inviteCfg config.InviteConfig,
	indexCfg config.IndexConfig,
	logger *zap.Logger,
) InviteService {
	return newInviteService(repo, index, inviteCfg, indexCfg, logger)
}

func newInviteService(
	repo repository.SubscriptionRepository,
	index repository.CodeIndex,
	inviteCfg config.InviteConfig,
	indexCfg config.IndexConfig,
	logger *zap.Logger,
) *inviteService {
	cfg := withInviteDefaults(inviteCfg)
	return &inviteService{
		repo:         repo,
		index:        index,
		ledger:       newLedgerIssuer(index, cfg),
		cfg:          cfg,
		scanFallback: !indexCfg.Authoritative,
		logger:       logger.Named("invite"),
		now:          time.Now,
	}
}

func (s *inviteService) Validate(ctx context.Context, code string) (*ValidateResult, error) {
	inviter, _, err := s.check(ctx, code)
	metrics.InviteValidations.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		if !IsBusinessError(err) {
			s.logger.Error("invite validation failed", zap.Error(err))
		}
		return nil, err
	}
	return &ValidateResult{InviterUID: inviter.UserID}, nil
}

// check applies the format, existence and unused checks. It returns the owning
// record and the normalized code.
func (s *inviteService) check(ctx context.Context, raw string) (*model.Subscription, string, error) {
	code := crypto.NormalizeInviteCode(raw)
	if !crypto.IsValidInviteCode(code) {
		return nil, "", ErrInvalidFormat
	}

	owner, i, err := s.lookup(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if owner.InviteCodes[i].IsUsed() {
		return nil, "", ErrCodeAlreadyUsed
	}
	return owner, code, nil
}

// lookup finds the record whose ledger holds code: the code index first, then a
// scan of every record in user id order.
func (s *inviteService) lookup(ctx context.Context, code string) (*model.Subscription, int, error) {
	ownerUID, indexErr := s.index.Owner(ctx, code)
	if indexErr != nil {
		if !s.scanFallback {
			return nil, -1, storeError(indexErr)
		}
		s.logger.Warn("code index unavailable, scanning records", zap.String("code", code), zap.Error(indexErr))
	}

	if ownerUID != "" {
		sub, err := s.repo.GetByUserID(ctx, ownerUID)
		switch {
		case err == nil:
			if i := sub.InviteCodes.Find(code); i >= 0 {
				metrics.CodeLookups.WithLabelValues("index").Inc()
				return sub, i, nil
			}
		case errors.Is(err, repository.ErrNotFound):
			// reserved for a ledger that is not persisted yet
		default:
			return nil, -1, storeError(err)
		}
	}

	if !s.scanFallback {
		metrics.CodeLookups.WithLabelValues("miss").Inc()
		return nil, -1, ErrCodeNotFound
	}

	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, -1, storeError(err)
	}
	for k := range subs {
		i := subs[k].InviteCodes.Find(code)
		if i < 0 {
			continue
		}
		metrics.CodeLookups.WithLabelValues("scan").Inc()
		if ownerUID == "" && indexErr == nil {
			s.backfill(ctx, code, subs[k].UserID)
		}
		return &subs[k], i, nil
	}

	metrics.CodeLookups.WithLabelValues("miss").Inc()
	return nil, -1, ErrCodeNotFound
}

func (s *inviteService) backfill(ctx context.Context, code, ownerUID string) {
	if _, err := s.index.Reserve(ctx, code, ownerUID); err != nil {
		s.logger.Warn("failed to backfill code index",
			zap.String("code", code),
			zap.String("owner", ownerUID),
			zap.Error(err),
		)
	}
}

func (s *inviteService) Redeem(ctx context.Context, code string, newUserUID string) (*RedeemResult, error) {
	result, err := s.redeem(ctx, code, newUserUID)
	metrics.InviteRedemptions.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		fields := []zap.Field{zap.String("new_user", newUserUID), zap.String("code_error", ErrorCode(err))}
		if IsBusinessError(err) {
			s.logger.Info("invite redemption rejected", fields...)
		} else {
			s.logger.Error("invite redemption failed", append(fields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("invite code redeemed",
		zap.String("inviter", result.InviterUID),
		zap.String("new_user", newUserUID),
		zap.Time("inviter_trial_end", result.InviterTrialEndDate),
	)
	return result, nil
}

func (s *inviteService) redeem(ctx context.Context, rawCode string, newUserUID string) (*RedeemResult, error) {
	newUserUID = strings.TrimSpace(newUserUID)
	if rawCode == "" || newUserUID == "" {
		return nil, ErrMissingFields
	}

	inviter, code, err := s.check(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	if inviter.UserID == newUserUID {
		return nil, ErrSelfRedemption
	}

	_, err = s.repo.GetByUserID(ctx, newUserUID)
	if err == nil {
		return nil, ErrAlreadySubscribed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err)
	}

	now := s.now().UTC()
	ledger, err := s.ledger.issue(ctx, newUserUID, now)
	if err != nil {
		return nil, err
	}

	var result *RedeemResult
	for attempt := 1; ; attempt++ {
		result, err = s.claim(ctx, inviter.UserID, code, newUserUID, ledger, now)
		if !errors.Is(err, repository.ErrVersionConflict) {
			break
		}
		metrics.InviteClaimConflicts.Inc()
		if attempt >= s.cfg.ClaimAttempts {
			err = storeError(err)
			break
		}
		s.logger.Debug("inviter record changed concurrently, re-reading",
			zap.String("inviter", inviter.UserID),
			zap.Int("attempt", attempt),
		)
	}

	if err != nil {
		if relErr := s.ledger.release(ctx, ledger); relErr != nil {
			s.logger.Warn("failed to release reserved invite codes", zap.String("new_user", newUserUID), zap.Error(relErr))
		}
		return nil, err
	}

	metrics.InviteCodesIssued.Add(float64(len(ledger)))
	return result, nil
}

// claim marks the code used, credits the inviter and provisions the new user in one transaction.
// A concurrent writer to the inviter record surfaces as repository.ErrVersionConflict.
func (s *inviteService) claim(ctx context.Context, inviterUID, code, newUserUID string, ledger model.InviteCodes, now time.Time) (*RedeemResult, error) {
	var result RedeemResult

	err := s.repo.Transaction(ctx, func(ctx context.Context, tx repository.SubscriptionRepository) error {
		inviter, err := tx.GetByUserID(ctx, inviterUID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCodeNotFound
			}
			return storeError(err)
		}

		i := inviter.InviteCodes.Find(code)
		if i < 0 {
			return ErrCodeNotFound
		}
		if inviter.InviteCodes[i].IsUsed() {
			return ErrCodeAlreadyUsed
		}

		usedBy, usedAt := newUserUID, now
		inviter.InviteCodes[i].UsedBy = &usedBy
		inviter.InviteCodes[i].UsedAt = &usedAt
		inviter.ReferralCount++
		inviter.TrialEndDate = inviter.TrialEndDate.Add(s.cfg.Extension)

		if err := tx.Update(ctx, inviter); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return err
			}
			return storeError(err)
		}

		referredBy := inviterUID
		sub := newTrialSubscription(newUserUID, &referredBy, ledger, now, s.cfg.TrialDuration)
		if err := tx.Create(ctx, sub); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadySubscribed
			}
			return storeError(err)
		}

		result = RedeemResult{
			InviterUID:          inviterUID,
			InviterExtended:     true,
			InviterTrialEndDate: inviter.TrialEndDate,
			TrialEndDate:        sub.TrialEndDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *inviteService) ListInviteCodes(ctx context.Context, filter InviteCodeFilter) ([]InviteCodeEntry, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	entries := make([]InviteCodeEntry, 0)
	for _, sub := range subs {
		for _, c := range sub.InviteCodes {
			if filter.Used != nil && c.IsUsed() != *filter.Used {
				continue
			}
			entries = append(entries, InviteCodeEntry{OwnerUID: sub.UserID, InviteCode: c})
		}
	}
	return entries, nil
}

// RebuildIndex reserves every ledger code for its owner. Codes already indexed to
// another user are counted as duplicates and left untouched.
func (s *inviteService) RebuildIndex(ctx context.Context) (*ReindexReport, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	report := &ReindexReport{Records: len(subs)}
	for _, sub := range subs {
		for _, c := range sub.InviteCodes {
			report.Codes++
			ok, err := s.index.Reserve(ctx, c.Code, sub.UserID)
			if err != nil {
				return nil, storeError(err)
			}
			if ok {
				continue
			}
			owner, err := s.index.Owner(ctx, c.Code)
			if err != nil {
				return nil, storeError(err)
			}
			if owner != sub.UserID {
				report.Duplicates++
				s.logger.Warn("duplicate invite code across ledgers",
					zap.String("code", c.Code),
					zap.String("indexed_owner", owner),
					zap.String("ledger_owner", sub.UserID),
				)
			}
		}
	}

	s.logger.Info("code index rebuilt",
		zap.Int("records", report.Records),
		zap.Int("codes", report.Codes),
		zap.Int("duplicates", report.Duplicates),
	)
	return report, nil
}
