package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s failed on %q", domain.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

// scopeFilter restricts filter to the organizations visible under scope.
// field names the filter field holding the organization id.
func scopeFilter(filter *repository.Filter, scope auth.Scope, field string) *repository.Filter {
	if scope.All {
		return filter
	}
	ids := make([]interface{}, 0, len(scope.OrganizationIDs))
	for _, id := range scope.OrganizationIDs {
		ids = append(ids, id.String())
	}
	return repository.And(filter, repository.In(field, ids...))
}

// deletionGuard rejects writes into organizations that are being deleted.
type deletionGuard interface {
	Guard(ctx context.Context, orgID uuid.UUID) error
}
