package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// ownerScope restricts a statement to the rows of one owner.
// Every statement on workouts and metrics goes through it; the owner id
// always comes from the resolved session.
func ownerScope(userID int) squirrel.Eq {
	return squirrel.Eq{"user_id": userID}
}

// ownedRecord restricts a statement to one row of one owner
func ownedRecord(userID, id int) squirrel.Eq {
	return squirrel.Eq{"id": id, "user_id": userID}
}

// execOwned runs an owner-scoped mutation. No matching row is reported as
// ErrNotFound whether the id is unknown or belongs to someone else.
func execOwned(ctx context.Context, db *sql.DB, logger *zap.Logger, op, query string, args []any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error("failed to "+op, zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to %s: %w", op, models.ErrNotFound)
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with wildcards in s escaped
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
