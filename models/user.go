package models

import "time"

// Account is the per-user entitlement and quota record. DailyDownloads counts
// downloads since the calendar day of LastDownloadDate began; TotalDownloads
// is lifetime and never reset. PremiumExpiry is only meaningful while
// IsPremium is true; an expiry in the past means the account is free tier
// again, whatever the flag says.
type Account struct {
	UserID           int64      `bson:"user_id"`
	IsPremium        bool       `bson:"is_premium"`
	PremiumExpiry    *time.Time `bson:"premium_expiry,omitempty"`
	DailyDownloads   int        `bson:"daily_downloads"`
	LastDownloadDate *time.Time `bson:"last_download_date,omitempty"`
	TotalDownloads   int64      `bson:"total_downloads"`
	JoinedDate       time.Time  `bson:"joined_date"`
}
