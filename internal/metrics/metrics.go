package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InviteValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitehub_validations_total",
			Help: "Total number of invite code validations by result",
		},
		[]string{"result"},
	)

	InviteRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitehub_redemptions_total",
			Help: "Total number of invite code redemptions by result",
		},
		[]string{"result"},
	)

	InviteClaimConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitehub_claim_conflicts_total",
			Help: "Conditional ledger writes rejected because the record changed concurrently",
		},
	)

	InviteCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitehub_codes_issued_total",
			Help: "Total number of invite codes reserved for new ledgers",
		},
	)

	CodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitehub_code_lookups_total",
			Help: "Invite code owner lookups by resolution path",
		},
		[]string{"source"}, // index | scan | miss
	)
)
