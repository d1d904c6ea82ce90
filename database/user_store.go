package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teradl-bot/ledger"
	"teradl-bot/models"
)

// UserStore implements ledger.Store on top of the users collection. Every
// driver failure is wrapped as ledger.ErrStoreUnavailable so callers can fail
// closed without knowing about Mongo.
type UserStore struct {
	users *mongo.Collection
}

var _ ledger.Store = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: GetUserCollection()}
}

// EnsureIndexes creates the unique index on user_id. The index is what makes
// concurrent first-access creation converge to a single record.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, userID int64) (*models.Account, error) {
	var a models.Account
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find user %d: %v", ledger.ErrStoreUnavailable, userID, err)
	}
	return &a, nil
}

// Insert creates the account if absent. An upsert with $setOnInsert keeps a
// duplicate-creation race harmless: the losing writer is a no-op.
func (s *UserStore) Insert(ctx context.Context, a *models.Account) error {
	filter := bson.M{"user_id": a.UserID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":         a.UserID,
			"is_premium":      a.IsPremium,
			"daily_downloads": a.DailyDownloads,
			"total_downloads": a.TotalDownloads,
			"joined_date":     a.JoinedDate,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := s.users.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("%w: insert user %d: %v", ledger.ErrStoreUnavailable, a.UserID, err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, a *models.Account) error {
	set := bson.M{
		"is_premium":      a.IsPremium,
		"premium_expiry":  a.PremiumExpiry,
		"daily_downloads": a.DailyDownloads,
		"total_downloads": a.TotalDownloads,
	}
	if a.LastDownloadDate != nil {
		set["last_download_date"] = a.LastDownloadDate
	}

	res, err := s.users.UpdateOne(ctx, bson.M{"user_id": a.UserID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%w: update user %d: %v", ledger.ErrStoreUnavailable, a.UserID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update user %d: %w", a.UserID, ledger.ErrNotFound)
	}
	return nil
}

// ExpirePremium clears is_premium for every account whose window has closed.
func (s *UserStore) ExpirePremium(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.users.UpdateMany(ctx,
		bson.M{"is_premium": true, "premium_expiry": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"is_premium": false, "premium_expiry": nil}},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: expire premium: %v", ledger.ErrStoreUnavailable, err)
	}
	return res.ModifiedCount, nil
}

func (s *UserStore) Stats(ctx context.Context) (ledger.Stats, error) {
	var out ledger.Stats

	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return out, fmt.Errorf("%w: count users: %v", ledger.ErrStoreUnavailable, err)
	}
	premium, err := s.users.CountDocuments(ctx, bson.M{"is_premium": true})
	if err != nil {
		return out, fmt.Errorf("%w: count premium users: %v", ledger.ErrStoreUnavailable, err)
	}

	cur, err := s.users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total_downloads"}}},
		}}},
	})
	if err != nil {
		return out, fmt.Errorf("%w: sum downloads: %v", ledger.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var sums []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &sums); err != nil {
		return out, fmt.Errorf("%w: sum downloads: %v", ledger.ErrStoreUnavailable, err)
	}

	out.TotalUsers = total
	out.PremiumUsers = premium
	if len(sums) > 0 {
		out.TotalDownloads = sums[0].Total
	}
	return out, nil
}
