package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// softDeletableTables lists every table carrying an is_deleted flag, in the
// order the retention sweep purges them (children before parents so foreign
// keys never dangle).
var softDeletableTables = []string{
	"transactions",
	"interwallet_transactions",
	"recurring_transactions",
	"budgets",
	"wallets",
	"categories",
	"users",
}

// HardDeleteExpired permanently removes rows soft-deleted at or before the
// cutoff. Returns deleted row counts keyed by table name.
func (q *Queries) HardDeleteExpired(ctx context.Context, cutoff time.Time) (map[string]int64, error) {
	counts := make(map[string]int64, len(softDeletableTables))
	for _, table := range softDeletableTables {
		res, err := q.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE is_deleted = 1 AND updated_at <= ?`, table),
			formatTime(cutoff))
		if err != nil {
			return counts, fmt.Errorf("hard delete from %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return counts, fmt.Errorf("hard delete from %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// userOwnedTables lists the tables soft-deleted when their owning user is,
// in the order the cascade runs.
var userOwnedTables = []string{
	"categories",
	"transactions",
	"budgets",
	"wallets",
	"recurring_transactions",
	"interwallet_transactions",
}

// SoftDeleteUserObjects marks every live row owned by the user as deleted.
// Returns affected row counts keyed by table name.
func (q *Queries) SoftDeleteUserObjects(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	now := formatTime(time.Now())
	counts := make(map[string]int64, len(userOwnedTables))
	for _, table := range userOwnedTables {
		res, err := q.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET is_deleted = 1, updated_at = ? WHERE user_id = ? AND is_deleted = 0`, table),
			now, userID.String())
		if err != nil {
			return counts, fmt.Errorf("soft delete %s for user: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return counts, fmt.Errorf("soft delete %s for user: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
