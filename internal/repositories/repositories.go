package repositories

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/desertthunder/lens/internal/shared"
)

// defaultListLimit bounds List queries that do not set "limit".
const defaultListLimit = 100

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullInt stores zero as NULL.
func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
}

// where appends an equality filter for each non-empty string criterion in keys.
func where(query string, args []any, criteria map[string]any, keys ...string) (string, []any) {
	for _, k := range keys {
		if v, ok := criteria[k].(string); ok && v != "" {
			query += " AND " + k + " = ?"
			args = append(args, v)
		}
	}
	return query, args
}

// limit appends a LIMIT clause from criteria["limit"], defaulting to [defaultListLimit].
func limit(query string, criteria map[string]any) string {
	n, ok := criteria["limit"].(int)
	if !ok || n <= 0 {
		n = defaultListLimit
	}
	return query + " LIMIT " + strconv.Itoa(n)
}

func affected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}
