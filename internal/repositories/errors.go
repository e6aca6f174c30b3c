package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic update finds the row changed.
var ErrVersionConflict = errors.New("record was modified concurrently")

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError requires the connection to be opened with TranslateError.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
