package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbook/invitehub/internal/config"
)

// Runs against a live replica set: INVITEHUB_TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
func TestMongoSubscriptionRepository(t *testing.T) {
	uri := os.Getenv("INVITEHUB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INVITEHUB_TEST_MONGO_URI not set")
	}

	client, err := config.NewMongoClient(config.MongoConfig{URI: uri, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	ctx := context.Background()
	defer client.Disconnect(ctx)

	dbName := "invitehub_test_" + uuid.NewString()[:8]
	defer client.Database(dbName).Drop(ctx)
	require.NoError(t, MigrateMongo(ctx, client, dbName))

	repo := NewMongoSubscriptionRepository(client, dbName)

	require.NoError(t, repo.Create(ctx, newSubscription("user-b", "LB-BBBBBB")))
	require.NoError(t, repo.Create(ctx, newSubscription("user-a", "LB-AAAAAA")))
	assert.ErrorIs(t, repo.Create(ctx, newSubscription("user-a")), ErrDuplicate)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "user-a", subs[0].UserID)

	sub, err := repo.GetByUserID(ctx, "user-a")
	require.NoError(t, err)
	stale := *sub
	sub.ReferralCount = 1
	require.NoError(t, repo.Update(ctx, sub))
	assert.ErrorIs(t, repo.Update(ctx, &stale), ErrVersionConflict)

	err = repo.Transaction(ctx, func(ctx context.Context, tx SubscriptionRepository) error {
		return tx.Create(ctx, newSubscription("user-c"))
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.Transaction(ctx, func(ctx context.Context, tx SubscriptionRepository) error {
		if err := tx.Create(ctx, newSubscription("user-d")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = repo.GetByUserID(ctx, "user-d")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByUserID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
