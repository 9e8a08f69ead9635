package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/lock"
	"github.com/dangerclosesec/orgtodo/internal/metrics"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/google/uuid"
)

// DeletionService removes an organization with its todos and members. Each
// phase runs in its own transaction and records its progress in a
// DeletionJob, so a failed run can be resumed where it stopped.
type DeletionService struct {
	jobs       repository.DeletionJobRepositoryIface
	orgs       repository.OrganizationRepositoryIface
	members    repository.MemberRepositoryIface
	todos      repository.TodoRepositoryIface
	locker     lock.Locker
	broker     notify.Broker
	cache      *CacheService
	entitySync *EntitySyncService
	audit      audit.Logger
	logger     *slog.Logger
}

type DeletionConfig struct {
	Jobs       repository.DeletionJobRepositoryIface
	Orgs       repository.OrganizationRepositoryIface
	Members    repository.MemberRepositoryIface
	Todos      repository.TodoRepositoryIface
	Locker     lock.Locker
	Broker     notify.Broker
	Cache      *CacheService
	EntitySync *EntitySyncService
	Audit      audit.Logger
	Logger     *slog.Logger
}

func NewDeletionService(cfg DeletionConfig) *DeletionService {
	if cfg.Locker == nil {
		cfg.Locker = lock.NewMemoryLocker()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NoOpLogger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DeletionService{
		jobs:       cfg.Jobs,
		orgs:       cfg.Orgs,
		members:    cfg.Members,
		todos:      cfg.Todos,
		locker:     cfg.Locker,
		broker:     cfg.Broker,
		cache:      cfg.Cache,
		entitySync: cfg.EntitySync,
		audit:      cfg.Audit,
		logger:     cfg.Logger,
	}
}

func deletionLockKey(orgID uuid.UUID) string {
	return "deletion:" + orgID.String()
}

// Request starts deleting an organization, or resumes the unfinished job
// already recorded for it. The returned job reports whether the run
// completed; a failed phase leaves it in status failed for the reconciler.
func (s *DeletionService) Request(ctx context.Context, orgID uuid.UUID, requestedBy string) (*model.DeletionJob, error) {
	release, err := s.locker.Lock(ctx, deletionLockKey(orgID))
	if err != nil {
		return nil, fmt.Errorf("locking organization: %w", err)
	}
	defer release()

	job, err := s.jobs.FindUnfinishedByOrganization(ctx, orgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if job == nil {
		if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
			return nil, err
		}
		job = &model.DeletionJob{
			OrganizationID: orgID,
			RequestedBy:    requestedBy,
			Phase:          model.PhaseTodos,
			Status:         model.DeletionPending,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return nil, fmt.Errorf("recording deletion job: %w", err)
		}
		s.logger.Info("organization deletion requested",
			"org_id", orgID.String(),
			"job_id", job.ID.String(),
			"requested_by", requestedBy,
		)
	}

	if err := s.run(ctx, job); err != nil {
		s.logger.Error("organization deletion failed",
			"org_id", orgID.String(),
			"job_id", job.ID.String(),
			"phase", job.Phase,
			"error", err,
		)
	}
	return job, nil
}

// Resume continues a pending or failed job. It is used by the reconciler.
func (s *DeletionService) Resume(ctx context.Context, job *model.DeletionJob) error {
	release, err := s.locker.Lock(ctx, deletionLockKey(job.OrganizationID))
	if err != nil {
		return fmt.Errorf("locking organization: %w", err)
	}
	defer release()

	// Another run may have progressed it while we waited for the lock.
	current, err := s.jobs.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	*job = *current
	if job.Status == model.DeletionCompleted {
		return nil
	}
	return s.run(ctx, job)
}

// Latest returns the most recent deletion job of an organization.
func (s *DeletionService) Latest(ctx context.Context, orgID uuid.UUID) (*model.DeletionJob, error) {
	return s.jobs.FindLatestByOrganization(ctx, orgID)
}

// Guard returns ErrDeletionInProgress while orgID has an unfinished job.
func (s *DeletionService) Guard(ctx context.Context, orgID uuid.UUID) error {
	_, err := s.jobs.FindUnfinishedByOrganization(ctx, orgID)
	switch {
	case err == nil:
		return domain.ErrDeletionInProgress
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *DeletionService) run(ctx context.Context, job *model.DeletionJob) error {
	for job.Phase != model.PhaseDone {
		if err := s.runPhase(ctx, job); err != nil {
			job.Status = model.DeletionFailed
			job.LastError = err.Error()
			job.Attempts++
			if uerr := s.jobs.Update(ctx, job); uerr != nil {
				s.logger.Error("failed to record deletion failure", "job_id", job.ID.String(), "error", uerr)
			}
			metrics.Default().DeletionJob(string(model.DeletionFailed))
			return fmt.Errorf("phase %s: %w", job.Phase, err)
		}
	}

	job.Status = model.DeletionCompleted
	job.LastError = ""
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("completing deletion job: %w", err)
	}
	metrics.Default().DeletionJob(string(model.DeletionCompleted))

	s.afterDelete(ctx, job)
	return nil
}

// runPhase performs the current phase and advances the job in the same
// transaction. Every phase tolerates rows that are already gone.
func (s *DeletionService) runPhase(ctx context.Context, job *model.DeletionJob) error {
	tx, err := s.jobs.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	orgID := job.OrganizationID
	var removedMembers []*model.OrganizationMember
	switch job.Phase {
	case model.PhaseTodos:
		n, err := s.todos.WithTx(tx).DeleteByOrganization(ctx, orgID)
		if err != nil {
			return err
		}
		s.logger.Debug("deleted organization todos", "org_id", orgID.String(), "count", n)
	case model.PhaseMembers:
		members, err := s.members.WithTx(tx).FindByOrganization(ctx, orgID)
		if err != nil {
			return err
		}
		if _, err := s.members.WithTx(tx).DeleteByOrganization(ctx, orgID); err != nil {
			return err
		}
		removedMembers = members
	case model.PhaseOrganization:
		if err := s.orgs.WithTx(tx).Delete(ctx, orgID); err != nil {
			return err
		}
	}

	next := *job
	next.Phase = job.Phase.Next()
	next.Status = model.DeletionPending
	if err := s.jobs.WithTx(tx).Update(ctx, &next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing phase: %w", err)
	}

	*job = next
	for _, m := range removedMembers {
		_ = s.audit.LogEntityDelete(ctx, model.EntityMember, m.ID.String())
	}
	return nil
}

func (s *DeletionService) afterDelete(ctx context.Context, job *model.DeletionJob) {
	orgID := job.OrganizationID

	_ = s.audit.LogEntityDelete(ctx, model.EntityOrganization, orgID.String())

	if s.cache != nil {
		if err := s.cache.Delete(ctx, organizationCacheKey(orgID)); err != nil {
			s.logger.Warn("failed to invalidate cached organization", "org_id", orgID.String(), "error", err)
		}
	}
	if err := s.entitySync.DeleteOrganization(ctx, orgID); err != nil {
		s.logger.Warn("failed to delete organization relationships", "org_id", orgID.String(), "error", err)
	}
	if s.broker != nil {
		if err := notify.PublishTodoChange(ctx, s.broker, orgID); err != nil {
			s.logger.Warn("failed to publish todo change", "org_id", orgID.String(), "error", err)
		}
	}

	s.logger.Info("organization deleted", "org_id", orgID.String(), "job_id", job.ID.String(), "attempts", job.Attempts)
}
