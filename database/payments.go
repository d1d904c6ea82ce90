package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teradl-bot/ledger"
	"teradl-bot/models"
)

// SavePendingPayment upserts a pending payment by payment id, so a re-sent QR
// for the same payment never produces two records.
func SavePendingPayment(ctx context.Context, p *models.PaymentPending) error {
	filter := bson.M{"payment_id": p.PaymentID, "user_id": p.UserID}
	update := bson.M{
		"$set": bson.M{
			"plan_id": p.PlanID,
			"days":    p.Days,
			"amount":  p.Amount,
		},
		"$setOnInsert": bson.M{
			"payment_id": p.PaymentID,
			"user_id":    p.UserID,
			"created_at": p.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := GetPaymentPendingCollection().UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("%w: save pending payment %s: %v", ledger.ErrStoreUnavailable, p.PaymentID, err)
	}
	return nil
}

// FindPendingPayment returns the latest pending payment for a user.
func FindPendingPayment(ctx context.Context, userID int64) (*models.PaymentPending, error) {
	var p models.PaymentPending
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := GetPaymentPendingCollection().FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find pending payment for %d: %v", ledger.ErrStoreUnavailable, userID, err)
	}
	return &p, nil
}

// SettlePayment moves a pending payment into the success collection.
func SettlePayment(ctx context.Context, p *models.PaymentSuccess) error {
	if _, err := GetPaymentSuccessCollection().InsertOne(ctx, p); err != nil {
		return fmt.Errorf("%w: settle payment %s: %v", ledger.ErrStoreUnavailable, p.PaymentID, err)
	}
	if _, err := GetPaymentPendingCollection().DeleteOne(ctx, bson.M{"payment_id": p.PaymentID}); err != nil {
		return fmt.Errorf("%w: clear pending payment %s: %v", ledger.ErrStoreUnavailable, p.PaymentID, err)
	}
	return nil
}
