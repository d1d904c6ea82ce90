package models

import "time"

// PaymentPending is created when a user picks a premium plan and is shown the
// UPI QR. It stays pending until an admin confirms the payment and grants the
// premium days.
type PaymentPending struct {
	PaymentID string    `bson:"payment_id"`
	UserID    int64     `bson:"user_id"`
	PlanID    string    `bson:"plan_id"`
	Days      int       `bson:"days"`
	Amount    int       `bson:"amount"`
	CreatedAt time.Time `bson:"created_at"`
}

// PaymentSuccess records a confirmed payment and the granted duration.
type PaymentSuccess struct {
	PaymentID   string    `bson:"payment_id"`
	UserID      int64     `bson:"user_id"`
	PlanID      string    `bson:"plan_id"`
	Days        int       `bson:"days"`
	Amount      int       `bson:"amount"`
	ActivatedAt time.Time `bson:"activated_at"`
}
