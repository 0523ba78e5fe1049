// internal/store/postgres/errors.postgres.go
package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// uniqueViolationOn reports a unique violation and the constraint it hit.
func uniqueViolationOn(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
