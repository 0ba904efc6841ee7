package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"linkbook/invitehub/internal/model"
)

const colSubscriptions = "subscriptions"

// subscriptionDocument is the MongoDB shape of model.Subscription.
type subscriptionDocument struct {
	UserID         string             `bson:"_id"`
	Plan           string             `bson:"plan"`
	TrialStartDate time.Time          `bson:"trialStartDate"`
	TrialEndDate   time.Time          `bson:"trialEndDate"`
	ReferredBy     *string            `bson:"referredBy,omitempty"`
	ReferralCount  int                `bson:"referralCount"`
	InviteCodes    []model.InviteCode `bson:"inviteCodes"`
	Version        int64              `bson:"version"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func toSubscriptionDocument(s *model.Subscription) *subscriptionDocument {
	codes := []model.InviteCode(s.InviteCodes)
	if codes == nil {
		codes = []model.InviteCode{}
	}
	return &subscriptionDocument{
		UserID:         s.UserID,
		Plan:           string(s.Plan),
		TrialStartDate: s.TrialStartDate,
		TrialEndDate:   s.TrialEndDate,
		ReferredBy:     s.ReferredBy,
		ReferralCount:  s.ReferralCount,
		InviteCodes:    codes,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func fromSubscriptionDocument(d *subscriptionDocument) *model.Subscription {
	return &model.Subscription{
		UserID:         d.UserID,
		Plan:           model.Plan(d.Plan),
		TrialStartDate: d.TrialStartDate.UTC(),
		TrialEndDate:   d.TrialEndDate.UTC(),
		ReferredBy:     d.ReferredBy,
		ReferralCount:  d.ReferralCount,
		InviteCodes:    model.InviteCodes(d.InviteCodes),
		Version:        d.Version,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type mongoSubscriptionRepository struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoSubscriptionRepository stores records in the subscriptions collection of db.
// Transactions require a replica set or sharded cluster.
func NewMongoSubscriptionRepository(client *mongo.Client, db string) SubscriptionRepository {
	return &mongoSubscriptionRepository{
		client: client,
		col:    client.Database(db).Collection(colSubscriptions),
	}
}

// MigrateMongo creates the ledger code index used by admin lookups.
func MigrateMongo(ctx context.Context, client *mongo.Client, db string) error {
	_, err := client.Database(db).Collection(colSubscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "inviteCodes.code", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create invite code index: %w", err)
	}
	return nil
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub.Version = 1

	if _, err := r.col.InsertOne(ctx, toSubscriptionDocument(sub)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo: create subscription: %w", err)
	}
	return nil
}

func (r *mongoSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	var doc subscriptionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get subscription: %w", err)
	}
	return fromSubscriptionDocument(&doc), nil
}

func (r *mongoSubscriptionRepository) List(ctx context.Context) ([]model.Subscription, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list subscriptions: %w", err)
	}

	var docs []subscriptionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode subscriptions: %w", err)
	}

	subs := make([]model.Subscription, 0, len(docs))
	for i := range docs {
		subs = append(subs, *fromSubscriptionDocument(&docs[i]))
	}
	return subs, nil
}

func (r *mongoSubscriptionRepository) Update(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC()
	codes := []model.InviteCode(sub.InviteCodes)
	if codes == nil {
		codes = []model.InviteCode{}
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": sub.UserID, "version": sub.Version},
		bson.M{"$set": bson.M{
			"plan":          string(sub.Plan),
			"trialEndDate":  sub.TrialEndDate,
			"referralCount": sub.ReferralCount,
			"inviteCodes":   codes,
			"version":       sub.Version + 1,
			"updatedAt":     now,
		}},
	)
	if err != nil {
		return fmt.Errorf("mongo: update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	sub.Version++
	sub.UpdatedAt = now
	return nil
}

func (r *mongoSubscriptionRepository) Transaction(ctx context.Context, fn func(ctx context.Context, tx SubscriptionRepository) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
		return nil, fn(sc, r)
	})
	return err
}
