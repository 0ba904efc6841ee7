package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"linkbook/invitehub/internal/model"
)

func TestSubscriptionDocument_Layout(t *testing.T) {
	sub := newSubscription("user-a", "LB-AAAAAA")
	sub.Version = 3
	usedBy := "user-b"
	sub.InviteCodes[0].UsedBy = &usedBy

	raw, err := bson.Marshal(toSubscriptionDocument(sub))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "user-a", m["_id"])
	assert.EqualValues(t, 3, m["version"])
	assert.Equal(t, "trial", m["plan"])
	assert.NotContains(t, m, "referredBy")

	codes, ok := m["inviteCodes"].(bson.A)
	require.True(t, ok, "inviteCodes should be an array, got %T", m["inviteCodes"])
	require.Len(t, codes, 1)
	assert.Equal(t, "LB-AAAAAA", field(codes[0], "code"))
	assert.Equal(t, "user-b", field(codes[0], "usedBy"))
}

// field reads key from a decoded embedded document, whichever document type the
// decoder chose for it.
func field(doc interface{}, key string) interface{} {
	switch d := doc.(type) {
	case bson.M:
		return d[key]
	case bson.D:
		for _, e := range d {
			if e.Key == key {
				return e.Value
			}
		}
	}
	return nil
}

func TestSubscriptionDocument_EmptyLedger(t *testing.T) {
	raw, err := bson.Marshal(toSubscriptionDocument(newSubscription("user-a")))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	codes, ok := m["inviteCodes"].(bson.A)
	require.True(t, ok, "an empty ledger is stored as [] so $set keeps the array type")
	assert.Empty(t, codes)
}

func TestSubscriptionDocument_RoundTrip(t *testing.T) {
	inviter := "user-z"
	sub := newSubscription("user-a", "LB-AAAAAA", "LB-BBBBBB")
	sub.ReferredBy = &inviter
	sub.ReferralCount = 2
	sub.Version = 5
	sub.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub.UpdatedAt = sub.CreatedAt

	raw, err := bson.Marshal(toSubscriptionDocument(sub))
	require.NoError(t, err)
	var doc subscriptionDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := fromSubscriptionDocument(&doc)

	assert.Equal(t, sub.UserID, got.UserID)
	assert.Equal(t, model.PlanTrial, got.Plan)
	assert.True(t, sub.TrialEndDate.Equal(got.TrialEndDate))
	require.NotNil(t, got.ReferredBy)
	assert.Equal(t, "user-z", *got.ReferredBy)
	assert.Equal(t, 2, got.ReferralCount)
	assert.Equal(t, int64(5), got.Version)
	require.Len(t, got.InviteCodes, 2)
	assert.Equal(t, "LB-BBBBBB", got.InviteCodes[1].Code)
	assert.False(t, got.InviteCodes[1].IsUsed())
}
