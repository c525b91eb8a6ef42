package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced when Postgres rejects a write on integrity grounds.
// Services translate these into the domain Conflict error.
var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrRestricted = errors.New("row is referenced by other rows")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func mapIntegrityError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDuplicate
		case pqForeignKeyViolation:
			return ErrRestricted
		}
	}
	return err
}
