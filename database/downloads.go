package database

import (
	"context"
	"fmt"

	"teradl-bot/ledger"
	"teradl-bot/models"
)

// LogDownload appends one entry to the download audit log.
func LogDownload(ctx context.Context, d *models.Download) error {
	_, err := GetDownloadCollection().InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("%w: log download for %d: %v", ledger.ErrStoreUnavailable, d.UserID, err)
	}
	return nil
}
