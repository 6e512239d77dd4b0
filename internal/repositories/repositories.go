// Package repositories holds the sqlx-backed persistence layer. Every
// repository returns apperr-classified errors so handlers can map them to
// responses without inspecting driver details.
package repositories

import (
	"errors"

	"github.com/lib/pq"

	"geochat-service/internal/apperr"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func storageErr(op string, err error) error {
	return apperr.Transient(op+" failed", err)
}
