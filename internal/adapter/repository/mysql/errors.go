package mysql

import (
	"errors"

	"gorm.io/gorm"

	"loan-lifecycle/internal/domain/apperr"
)

// wrap maps gorm errors onto the domain error kinds. notFound is returned for
// gorm.ErrRecordNotFound.
func wrap(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case apperr.Known(err):
		return err
	default:
		return apperr.Persistence(err)
	}
}
