// internal/service/deletion_reconciliation.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/repository"
)

// DeletionReconciler periodically resumes organization deletions that were
// interrupted or failed, and optionally rewrites membership relationships.
type DeletionReconciler struct {
	jobs         repository.DeletionJobRepositoryIface
	orgRepo      repository.OrganizationRepositoryIface
	deletion     *DeletionService
	entitySync   *EntitySyncService
	syncInterval time.Duration
	batchSize    int
	dryRun       bool // If true, don't make changes, just log
	logger       *slog.Logger
	stopChan     chan struct{}
	stoppedChan  chan struct{}
}

// NewDeletionReconciler creates a new reconciler. entitySync may be nil.
func NewDeletionReconciler(
	jobs repository.DeletionJobRepositoryIface,
	orgRepo repository.OrganizationRepositoryIface,
	deletion *DeletionService,
	entitySync *EntitySyncService,
	syncInterval time.Duration,
	logger *slog.Logger,
) *DeletionReconciler {
	if syncInterval == 0 {
		syncInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeletionReconciler{
		jobs:         jobs,
		orgRepo:      orgRepo,
		deletion:     deletion,
		entitySync:   entitySync,
		syncInterval: syncInterval,
		batchSize:    100,
		dryRun:       false,
		logger:       logger,
		stopChan:     make(chan struct{}),
		stoppedChan:  make(chan struct{}),
	}
}

// Start begins the periodic reconciliation process
func (s *DeletionReconciler) Start() {
	go func() {
		ticker := time.NewTicker(s.syncInterval)
		defer ticker.Stop()
		defer close(s.stoppedChan)

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := s.ReconcileDeletions(ctx); err != nil {
					s.logger.Error("reconciliation failed", "error", err)
				}
				cancel()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the reconciliation process
func (s *DeletionReconciler) Stop() {
	close(s.stopChan)
	<-s.stoppedChan
}

// SetBatchSize sets the number of jobs fetched per run
func (s *DeletionReconciler) SetBatchSize(size int) {
	if size > 0 {
		s.batchSize = size
	}
}

// SetDryRun sets whether to actually make changes or just log what would be done
func (s *DeletionReconciler) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// ReconcileDeletions resumes up to one batch of pending and failed jobs and
// returns how many completed.
func (s *DeletionReconciler) ReconcileDeletions(ctx context.Context) (int, error) {
	jobs, err := s.jobs.FindResumable(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetching resumable deletion jobs: %w", err)
	}

	s.logger.Info("reconciling deletion jobs", "count", len(jobs), "dry_run", s.dryRun)

	completed := 0
	for _, job := range jobs {
		if s.dryRun {
			s.logger.Info("would resume deletion (dry run)",
				"job_id", job.ID.String(),
				"org_id", job.OrganizationID.String(),
				"phase", job.Phase,
				"attempts", job.Attempts,
			)
			continue
		}

		if err := s.deletion.Resume(ctx, job); err != nil {
			s.logger.Error("failed to resume deletion",
				"job_id", job.ID.String(),
				"org_id", job.OrganizationID.String(),
				"error", err,
			)
			// Continue with other jobs
		} else {
			completed++
			s.logger.Info("successfully resumed deletion",
				"job_id", job.ID.String(),
				"org_id", job.OrganizationID.String(),
			)
		}

		// Check if context is done between jobs
		select {
		case <-ctx.Done():
			return completed, ctx.Err()
		default:
		}
	}

	return completed, nil
}

// ReconcileRelationships rewrites the member relations of every organization.
// It does nothing unless relationships are kept outside the database.
func (s *DeletionReconciler) ReconcileRelationships(ctx context.Context) error {
	if s.entitySync == nil {
		return nil
	}

	// In a real implementation, we'd use pagination to handle large datasets
	orgs, err := s.orgRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching organizations: %w", err)
	}

	s.logger.Info("reconciling organization relationships", "count", len(orgs), "dry_run", s.dryRun)

	for i := 0; i < len(orgs); i += s.batchSize {
		end := i + s.batchSize
		if end > len(orgs) {
			end = len(orgs)
		}

		for _, org := range orgs[i:end] {
			if s.dryRun {
				s.logger.Info("would sync organization (dry run)",
					"org_id", org.ID.String(),
					"name", org.Name,
				)
				continue
			}

			synced, err := s.entitySync.ResyncOrganization(ctx, org.ID)
			if err != nil {
				s.logger.Error("failed to sync organization",
					"org_id", org.ID.String(),
					"error", err,
				)
				continue
			}
			s.logger.Info("successfully synced organization",
				"org_id", org.ID.String(),
				"members", synced,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
