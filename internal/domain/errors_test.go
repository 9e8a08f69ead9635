package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCodeRoundTrip(t *testing.T) {
	for _, err := range []error{
		domain.ErrOrganizationNotFound,
		domain.ErrMemberAlreadyExists,
		domain.ErrInvalidFilter,
		domain.ErrForbidden,
	} {
		code := domain.Code(fmt.Errorf("wrapped: %w", err))
		assert.NotEmpty(t, code)
		assert.Equal(t, err, domain.FromCode(code))
	}

	assert.Empty(t, domain.Code(fmt.Errorf("boom")))
	assert.Nil(t, domain.FromCode("nope"))
}

func TestNotFoundErrorsWrapNotFound(t *testing.T) {
	for _, err := range []error{
		domain.ErrOrganizationNotFound,
		domain.ErrMemberNotFound,
		domain.ErrTodoNotFound,
	} {
		assert.True(t, errors.Is(err, domain.ErrNotFound), err.Error())
		assert.NotEqual(t, "not_found", domain.Code(err))
	}
	assert.Equal(t, "todo_not_found", domain.Code(fmt.Errorf("finding: %w", domain.ErrTodoNotFound)))
}
