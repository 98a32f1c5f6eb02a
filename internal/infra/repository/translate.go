package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/oakmere/adviserdesk/internal/domain"
)

// translateError maps gorm's translated driver errors onto the domain
// taxonomy. Check violations become contract failures: by the time a write
// reaches the database the access service must already have validated it.
func translateError(err error, resource string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.ConstraintViolationError{Detail: err.Error()}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ConstraintViolationError{Detail: err.Error()}
	default:
		return err
	}
}
