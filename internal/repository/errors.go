package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// IsNotFound — запись отсутствует в хранилище.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
