package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"productcatalog/internal/apperr"
)

// Translate maps persistence failures onto the application error codes.
// Errors that are already typed pass through untouched; nil stays nil.
func Translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if apperr.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.CodeNotFound, err, op+": not found")
	case errors.Is(err, gorm.ErrDuplicatedKey) || IsUniqueViolation(err):
		return apperr.Wrap(apperr.CodeConflict, err, op+": already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated) || IsForeignKeyViolation(err):
		return apperr.Wrap(apperr.CodeValidation, err, op+": referenced record does not exist")
	case IsNotNullViolation(err):
		return apperr.Wrap(apperr.CodeValidation, err, op+": missing required value")
	}
	return apperr.Wrap(apperr.CodeDependency, err, op)
}

// IsUniqueViolation matches Postgres and SQLite unique constraint messages.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

func IsNotNullViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "violates not-null constraint") || strings.Contains(msg, "NOT NULL constraint failed")
}
