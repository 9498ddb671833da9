package sitekit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the content store. Handlers branch on these
// with errors.Is to pick a user-facing message.
var (
	// ErrNotFound is returned when an operation references a nonexistent id.
	ErrNotFound = errors.New("запись не найдена")

	// ErrDuplicateSlug is returned when a derived slug collides with an
	// existing record's slug.
	ErrDuplicateSlug = errors.New("материал с таким slug уже существует")

	// ErrCategoryInUse is returned by DeleteCategory while posts still
	// reference the category.
	ErrCategoryInUse = errors.New("категория используется в статьях")

	// ErrNotAuthenticated is returned by session operations that require a
	// logged-in user.
	ErrNotAuthenticated = errors.New("требуется вход в систему")
)

// ValidationError collects human-readable messages for every invalid field.
// It is surfaced to the admin UI as an inline list before anything persists.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "ошибки валидации: " + strings.Join(e.Errors, "; ")
}

// AuthError is a login or token failure with a message safe to show the user.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// StorageError wraps a serialization or backend failure of the persistence
// layer. Reads recover from it by falling back to empty collections; writes
// propagate it.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
