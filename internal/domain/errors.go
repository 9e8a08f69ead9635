// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// General errors
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFilter = errors.New("invalid filter")

	// Access errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Organization-related errors
	ErrOrganizationNotFound = fmt.Errorf("organization %w", ErrNotFound)
	ErrDeletionInProgress   = errors.New("organization deletion already in progress")

	// Member-related errors
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrMemberAlreadyExists  = errors.New("member already exists")
	ErrCannotRemoveSelf     = errors.New("cannot remove own membership")
	ErrMembershipNotPending = errors.New("membership is not pending")

	// Todo-related errors
	ErrTodoNotFound = fmt.Errorf("todo %w", ErrNotFound)
)

// codes are the stable error identifiers carried in API error responses.
var codes = []struct {
	err  error
	code string
}{
	// Specific errors first: the not-found ones wrap ErrNotFound.
	{ErrOrganizationNotFound, "organization_not_found"},
	{ErrMemberNotFound, "member_not_found"},
	{ErrTodoNotFound, "todo_not_found"},
	{ErrDeletionInProgress, "deletion_in_progress"},
	{ErrMemberAlreadyExists, "member_already_exists"},
	{ErrCannotRemoveSelf, "cannot_remove_self"},
	{ErrMembershipNotPending, "membership_not_pending"},
	{ErrInvalidFilter, "invalid_filter"},
	{ErrInvalidInput, "invalid_input"},
	{ErrNotFound, "not_found"},
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
}

// Code returns the API error code of err, or "" for unexpected errors.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// FromCode returns the sentinel error for an API error code, or nil.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
