package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/mocks"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newGroupAuthorizer(t *testing.T) *auth.GroupAuthorizer {
	t.Helper()
	enforcer, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	return auth.NewGroupAuthorizer(enforcer, nil)
}

func TestGroupAuthorizer(t *testing.T) {
	ctx := context.Background()
	authz := newGroupAuthorizer(t)

	admin := &model.Principal{UserID: "admin", Groups: []string{model.GroupAdmin}}
	member := &model.Principal{UserID: "member", Groups: []string{model.GroupMember}}
	anyone := &model.Principal{UserID: "anyone"}

	tests := []struct {
		name      string
		principal *model.Principal
		action    string
		allowed   bool
	}{
		{"admin create", admin, model.ActionCreate, true},
		{"admin update", admin, model.ActionUpdate, true},
		{"admin delete", admin, model.ActionDelete, true},
		{"admin read", admin, model.ActionRead, true},
		{"member read", member, model.ActionRead, true},
		{"member create", member, model.ActionCreate, false},
		{"member delete", member, model.ActionDelete, false},
		{"authenticated read", anyone, model.ActionRead, true},
		{"authenticated update", anyone, model.ActionUpdate, false},
	}

	for _, entity := range auth.PolicyObjects {
		for _, tt := range tests {
			t.Run(entity+" "+tt.name, func(t *testing.T) {
				err := authz.Authorize(ctx, tt.principal, tt.action, auth.Resource{Type: entity, OrganizationID: uuid.New()})
				if tt.allowed {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, domain.ErrForbidden)
				}
			})
		}
	}

	t.Run("unknown entity denied", func(t *testing.T) {
		err := authz.Authorize(ctx, admin, model.ActionRead, auth.Resource{Type: "invoice"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("nil principal", func(t *testing.T) {
		err := authz.Authorize(ctx, nil, model.ActionRead, auth.Resource{Type: model.EntityTodo})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("read scope is global", func(t *testing.T) {
		scope, err := authz.ReadScope(ctx, member)
		require.NoError(t, err)
		assert.True(t, scope.All)
		assert.True(t, scope.Allows(uuid.New()))
	})

	assert.Equal(t, model.MemberStatusPending, authz.CreatorStatus())
}

func TestTenantAuthorizer(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	members := mocks.NewMockMemberRepositoryIface(ctrl)
	authz := auth.NewTenantAuthorizer(newGroupAuthorizer(t), members, nil)

	orgID := uuid.New()
	admin := &model.Principal{UserID: "u-1", Email: "a@example.com", Groups: []string{model.GroupAdmin}}
	todo := auth.Resource{Type: model.EntityTodo, OrganizationID: orgID}

	t.Run("active admin may create", func(t *testing.T) {
		members.EXPECT().FindActive(ctx, orgID, "u-1", "a@example.com").
			Return(&model.OrganizationMember{Status: model.MemberStatusActive}, nil)

		assert.NoError(t, authz.Authorize(ctx, admin, model.ActionCreate, todo))
	})

	t.Run("admin without active membership is denied", func(t *testing.T) {
		members.EXPECT().FindActive(ctx, orgID, "u-1", "a@example.com").
			Return(nil, domain.ErrMemberNotFound)

		assert.ErrorIs(t, authz.Authorize(ctx, admin, model.ActionRead, todo), domain.ErrForbidden)
	})

	t.Run("active member still bound by group matrix", func(t *testing.T) {
		member := &model.Principal{UserID: "u-2", Email: "m@example.com", Groups: []string{model.GroupMember}}
		members.EXPECT().FindActive(ctx, orgID, "u-2", "m@example.com").
			Return(&model.OrganizationMember{Status: model.MemberStatusActive}, nil)

		assert.ErrorIs(t, authz.Authorize(ctx, member, model.ActionDelete, todo), domain.ErrForbidden)
	})

	t.Run("organization create needs no membership", func(t *testing.T) {
		p := &model.Principal{UserID: "u-3"}
		assert.NoError(t, authz.Authorize(ctx, p, model.ActionCreate, auth.Resource{Type: model.EntityOrganization}))
	})

	t.Run("repository failure surfaces", func(t *testing.T) {
		boom := errors.New("boom")
		members.EXPECT().FindActive(ctx, orgID, "u-1", "a@example.com").Return(nil, boom)

		assert.ErrorIs(t, authz.Authorize(ctx, admin, model.ActionRead, todo), boom)
	})

	t.Run("read scope lists active organizations", func(t *testing.T) {
		members.EXPECT().ActiveOrganizationIDs(ctx, "u-1", "a@example.com").Return([]uuid.UUID{orgID}, nil)

		scope, err := authz.ReadScope(ctx, admin)
		require.NoError(t, err)
		assert.False(t, scope.All)
		assert.True(t, scope.Allows(orgID))
		assert.False(t, scope.Allows(uuid.New()))
	})
}

type fakePermissionStore struct {
	allowed   map[string]bool
	lookup    []string
	relations []string
}

func (f *fakePermissionStore) CheckPermission(_ context.Context, entity model.Entity, permission string, subject model.Subject) (bool, error) {
	return f.allowed[entity.ID+"#"+permission+"@"+subject.ID], nil
}

func (f *fakePermissionStore) LookupEntity(context.Context, string, string, model.Subject) ([]string, error) {
	return f.lookup, nil
}

func (f *fakePermissionStore) WriteRelationship(_ context.Context, entity model.Entity, relation string, subject model.Subject) error {
	f.relations = append(f.relations, entity.ID+"#"+relation+"@"+subject.ID)
	return nil
}

func (f *fakePermissionStore) DeleteRelationship(context.Context, model.Entity, string, model.Subject) error {
	return nil
}

func (f *fakePermissionStore) DeleteEntity(context.Context, model.Entity) error {
	return nil
}

func TestPermifyAuthorizer(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	store := &fakePermissionStore{
		allowed: map[string]bool{orgID.String() + "#update@u-1": true},
		lookup:  []string{orgID.String(), "not-a-uuid"},
	}
	authz := auth.NewPermifyAuthorizer(store, nil)
	p := &model.Principal{UserID: "u-1"}

	assert.NoError(t, authz.Authorize(ctx, p, model.ActionUpdate, auth.Resource{Type: model.EntityTodo, OrganizationID: orgID}))
	assert.ErrorIs(t, authz.Authorize(ctx, p, model.ActionDelete, auth.Resource{Type: model.EntityTodo, OrganizationID: orgID}), domain.ErrForbidden)
	assert.NoError(t, authz.Authorize(ctx, p, model.ActionCreate, auth.Resource{Type: model.EntityOrganization}))

	scope, err := authz.ReadScope(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orgID}, scope.OrganizationIDs)

	require.NoError(t, authz.WriteRelationship(ctx, model.Entity{Type: model.EntityOrganization, ID: orgID.String()}, model.RelationAdmin, model.UserSubject(p)))
	assert.Equal(t, []string{orgID.String() + "#admin@u-1"}, store.relations)
}
