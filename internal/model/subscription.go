package model

import "time"

type Plan string

const (
	PlanTrial Plan = "trial"
	PlanPro   Plan = "pro"
)

// Subscription is the per-user subscription record. It owns the user's invite ledger.
type Subscription struct {
	UserID         string      `gorm:"type:varchar(128);primaryKey" json:"userId"`
	Plan           Plan        `gorm:"type:varchar(16);not null" json:"plan"`
	TrialStartDate time.Time   `gorm:"not null" json:"trialStartDate"`
	TrialEndDate   time.Time   `gorm:"not null" json:"trialEndDate"`
	ReferredBy     *string     `gorm:"type:varchar(128)" json:"referredBy"`
	ReferralCount  int         `gorm:"not null" json:"referralCount"`
	InviteCodes    InviteCodes `gorm:"type:jsonb;not null" json:"inviteCodes"`
	Version        int64       `gorm:"not null" json:"-"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (Subscription) TableName() string { return "subscriptions" }
