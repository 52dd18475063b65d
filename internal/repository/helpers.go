package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/pkg/database"
)

// expectAffected maps an update or delete that touched no row to sql.ErrNoRows.
func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// reorder rewrites the position column of table following ids.
func reorder(ctx context.Context, db *sqlx.DB, table, userID string, ids []string) error {
	query := fmt.Sprintf(`UPDATE %s SET position = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`, table)
	return database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx, query, i, now, id, userID); err != nil {
				return fmt.Errorf("reorder %s: %w", table, err)
			}
		}
		return nil
	})
}

// dateRange appends optional day bounds on column to a WHERE clause.
func dateRange(column string, from, to *time.Time, conditions []string, args []interface{}) ([]string, []interface{}) {
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return conditions, args
}
