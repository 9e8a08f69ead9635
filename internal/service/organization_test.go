package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationCreate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		mode          string
		creatorStatus model.MemberStatus
	}{
		{"group", model.MemberStatusPending},
		{"tenant", model.MemberStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			f := newFixture(t, tt.mode)
			org := f.createOrg(t, admin, "  Acme  ")
			assert.Equal(t, "Acme", org.Name)

			members, err := f.members.FindByOrganization(ctx, org.ID)
			require.NoError(t, err)
			require.Len(t, members, 1)
			assert.Equal(t, admin.UserID, members[0].UserID)
			assert.Equal(t, admin.Email, members[0].Email)
			assert.Equal(t, tt.creatorStatus, members[0].Status)
		})
	}

	t.Run("group mode requires Admin", func(t *testing.T) {
		f := newFixture(t, "group")
		_, err := f.orgs.Create(ctx, staff, service.CreateOrganizationInput{Name: "Nope"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("tenant mode lets anyone start one", func(t *testing.T) {
		f := newFixture(t, "tenant")
		org, err := f.orgs.Create(ctx, staff, service.CreateOrganizationInput{Name: "Mine"})
		require.NoError(t, err)

		got, err := f.orgs.Get(ctx, staff, org.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mine", got.Name)
	})

	t.Run("name is required", func(t *testing.T) {
		f := newFixture(t, "group")
		_, err := f.orgs.Create(ctx, admin, service.CreateOrganizationInput{Name: " "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestOrganizationUpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Old")

	got, err := f.orgs.Get(ctx, staff, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Name)

	_, err = f.orgs.Update(ctx, staff, org.ID, service.UpdateOrganizationInput{Name: "New"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.orgs.Update(ctx, admin, org.ID, service.UpdateOrganizationInput{Name: "New"})
	require.NoError(t, err)

	got, err = f.orgs.Get(ctx, staff, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
}

func TestOrganizationListTenantScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "tenant")

	mine := f.createOrg(t, staff, "Mine")
	f.createOrg(t, admin, "Theirs")

	orgs, err := f.orgs.List(ctx, staff, nil)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, mine.ID, orgs[0].ID)

	orgs, err = f.orgs.List(ctx, staff, repository.Eq("name", "Theirs"))
	require.NoError(t, err)
	assert.Empty(t, orgs)
}

func TestOrganizationDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("without children", func(t *testing.T) {
		f := newFixture(t, "group")
		org := f.createOrg(t, admin, "Empty")

		job, err := f.orgs.Delete(ctx, admin, org.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DeletionCompleted, job.Status)
		assert.Equal(t, model.PhaseDone, job.Phase)

		orgs, err := f.orgs.List(ctx, admin, nil)
		require.NoError(t, err)
		assert.Empty(t, orgs)

		_, err = f.orgs.Get(ctx, admin, org.ID)
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})

	t.Run("cascades to todos and members", func(t *testing.T) {
		f := newFixture(t, "group")
		org := f.createOrg(t, admin, "Full")
		keep := f.createOrg(t, admin, "Keep")
		f.createTodo(t, admin, org, "one")
		f.createTodo(t, admin, org, "two")
		f.createTodo(t, admin, keep, "kept")
		_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "x@example.com"})
		require.NoError(t, err)

		job, err := f.orgs.Delete(ctx, admin, org.ID)
		require.NoError(t, err)
		require.True(t, job.Finished())

		todos, err := f.todos.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, keep.ID, todos[0].OrganizationID)

		members, err := f.members.FindByOrganization(ctx, org.ID)
		require.NoError(t, err)
		assert.Empty(t, members)

		latest, err := f.orgs.Deletion(ctx, admin, org.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, latest.ID)
	})

	t.Run("member may not delete", func(t *testing.T) {
		f := newFixture(t, "group")
		org := f.createOrg(t, admin, "Guarded")
		_, err := f.orgs.Delete(ctx, staff, org.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newFixture(t, "group")
		org := f.createOrg(t, admin, "Gone")
		_, err := f.orgs.Delete(ctx, admin, org.ID)
		require.NoError(t, err)

		_, err = f.orgs.Delete(ctx, admin, org.ID)
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})
}

func TestOrganizationDeletionVisibleToRequester(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "tenant")

	org := f.createOrg(t, admin, "Gone")
	job, err := f.orgs.Delete(ctx, admin, org.ID)
	require.NoError(t, err)
	require.Equal(t, model.DeletionCompleted, job.Status)

	// The requester's membership went with the organization.
	latest, err := f.orgs.Deletion(ctx, admin, org.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, latest.ID)

	_, err = f.orgs.Deletion(ctx, staff, org.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrganizationCacheSharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	mr := miniredis.RunT(t)

	// Two API instances over one database and one Redis.
	instance := func() *service.OrganizationService {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		cache := service.NewRedisCacheService(client, time.Minute)
		deletion := service.NewDeletionService(service.DeletionConfig{
			Jobs:    f.jobs,
			Orgs:    f.orgRepo,
			Members: f.members,
			Todos:   f.todos,
			Broker:  f.broker,
			Cache:   cache,
		})
		return service.NewOrganizationService(f.orgRepo, f.members, f.authz, deletion, cache, nil, nil, nil)
	}
	a, b := instance(), instance()

	org, err := a.Create(ctx, admin, service.CreateOrganizationInput{Name: "Old"})
	require.NoError(t, err)

	got, err := b.Get(ctx, staff, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Name)

	_, err = a.Update(ctx, admin, org.ID, service.UpdateOrganizationInput{Name: "New"})
	require.NoError(t, err)

	got, err = b.Get(ctx, staff, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	job, err := a.Delete(ctx, admin, org.ID)
	require.NoError(t, err)
	require.Equal(t, model.DeletionCompleted, job.Status)

	_, err = b.Get(ctx, staff, org.ID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
}
