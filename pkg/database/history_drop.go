package database

import (
	"context"
	"time"

	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
)

// Only delete up to 1000 rows in a single DB transaction to avoid lock
// timeouts.
const deleteBatchSize = 1000

// DropHistoryIteration prunes receipts older than the retention interval.
// Replay protection does not depend on stored receipts, so dropping history
// never reopens a replay window.
func (db *DB) DropHistoryIteration(ctx context.Context, intervalSeconds uint64) error {
	deleteBefore := time.Now().Add(-time.Duration(intervalSeconds) * time.Second)

	var deleted int64
	for {
		result := db.g.WithContext(ctx).
			Limit(deleteBatchSize).
			Where("timestamp < ?", deleteBefore).
			Delete(&Receipt{})

		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to delete historic receipts")
		}

		deleted += result.RowsAffected

		if result.RowsAffected == 0 {
			break
		}
	}

	if deleted > 0 {
		logger.Infof("dropped %d receipts older than %s", deleted, deleteBefore.Format(time.RFC3339))
	}

	return nil
}
