package models

import "time"

// Download is one row in the download audit log, written after each
// successful resolution. Count mirrors the user's daily counter at the time
// of the download.
type Download struct {
	UserID int64     `bson:"user_id"`
	Date   time.Time `bson:"download_date"`
	Link   string    `bson:"link"`
	Title  string    `bson:"title,omitempty"`
	Count  int       `bson:"count"`
}
