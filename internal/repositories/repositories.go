// package repositories provides persistence layer implementations for the bridge's local state.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/svbridge/internal/shared"
)

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// notFound wraps [shared.ErrNotFound] when err is [sql.ErrNoRows].
func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	return fmt.Errorf("failed to query %s: %w", kind, err)
}
