package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/mocks"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDeletionResumesAfterFailedPhase(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Flaky")
	_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "x@example.com"})
	require.NoError(t, err)

	todos := mocks.NewMockTodoRepositoryIface(ctrl)
	todos.EXPECT().WithTx(gomock.Any()).Return(todos).AnyTimes()
	gomock.InOrder(
		todos.EXPECT().
			DeleteByOrganization(gomock.Any(), org.ID).
			Return(int64(0), errors.New("connection reset")),
		todos.EXPECT().
			DeleteByOrganization(gomock.Any(), org.ID).
			Return(int64(2), nil),
	)

	deletion := service.NewDeletionService(service.DeletionConfig{
		Jobs:    f.jobs,
		Orgs:    f.orgRepo,
		Members: f.members,
		Todos:   todos,
		Broker:  f.broker,
	})

	job, err := deletion.Request(ctx, org.ID, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.DeletionFailed, job.Status)
	assert.Equal(t, model.PhaseTodos, job.Phase)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.LastError, "connection reset")

	t.Run("writes are refused meanwhile", func(t *testing.T) {
		assert.ErrorIs(t, deletion.Guard(ctx, org.ID), domain.ErrDeletionInProgress)
		_, err := f.todoSv.Create(ctx, admin, service.CreateTodoInput{Content: "late", OrganizationID: org.ID})
		assert.ErrorIs(t, err, domain.ErrDeletionInProgress)
	})

	reconciler := service.NewDeletionReconciler(f.jobs, f.orgRepo, deletion, nil, 0, nil)

	t.Run("dry run changes nothing", func(t *testing.T) {
		reconciler.SetDryRun(true)
		completed, err := reconciler.ReconcileDeletions(ctx)
		require.NoError(t, err)
		assert.Zero(t, completed)
		reconciler.SetDryRun(false)
	})

	completed, err := reconciler.ReconcileDeletions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	stored, err := f.jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeletionCompleted, stored.Status)
	assert.Equal(t, model.PhaseDone, stored.Phase)
	assert.Empty(t, stored.LastError)

	_, err = f.orgRepo.FindByID(ctx, org.ID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	members, err := f.members.FindByOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	assert.NoError(t, deletion.Guard(ctx, org.ID))
}

func TestDeletionRequestResumesUnfinishedJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Half")

	job := &model.DeletionJob{
		OrganizationID: org.ID,
		RequestedBy:    admin.UserID,
		Phase:          model.PhaseMembers,
		Status:         model.DeletionPending,
	}
	require.NoError(t, f.jobs.Create(ctx, job))

	resumed, err := f.deletion.Request(ctx, org.ID, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, job.ID, resumed.ID, "no second job is recorded")
	assert.Equal(t, model.DeletionCompleted, resumed.Status)
	assert.Equal(t, admin.UserID, resumed.RequestedBy)
}
