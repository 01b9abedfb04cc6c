package service

import (
	"context"
	"fmt"
	"log"

	integrityRepo "failboard.id/failboard/internal/modules/integrity/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Report is the read-only output of an integrity scan.
type Report struct {
	OrphanedReactions  []OrphanedReaction                `json:"orphaned_reactions"`
	MismatchedCounters []integrityRepo.CounterMismatch   `json:"mismatched_counters"`
	UsersWithoutStats  []uuid.UUID                       `json:"users_without_stats"`
	StaleCourageTotals []integrityRepo.StaleCourageTotal `json:"stale_courage_totals"`
	Healthy            bool                              `json:"healthy"`
}

type OrphanedReaction struct {
	ReactionID uuid.UUID `json:"reaction_id"`
	UserID     uuid.UUID `json:"user_id"`
	FailID     uuid.UUID `json:"fail_id"`
	Type       string    `json:"type"`
}

// RepairSummary says what a repair pass changed.
type RepairSummary struct {
	OrphansDeleted   int64       `json:"orphans_deleted"`
	CountersRepaired []uuid.UUID `json:"counters_repaired"`
	TotalsRebuilt    []uuid.UUID `json:"totals_rebuilt"`
}

// IntegrityService detects and repairs drift in the denormalized caches.
// Counters are always rebuilt from source records, never patched with
// deltas, so repair can run concurrently with normal traffic and running
// it twice is a no-op.
type IntegrityService interface {
	Analyze(ctx context.Context) (*Report, error)
	RepairFail(ctx context.Context, failID uuid.UUID) error
	RepairAll(ctx context.Context) (*RepairSummary, error)
}

type integrityService struct {
	repo        integrityRepo.IntegrityRepository
	redisClient *redis.Client
}

func NewIntegrityService(repo integrityRepo.IntegrityRepository, redisClient *redis.Client) IntegrityService {
	return &integrityService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *integrityService) Analyze(ctx context.Context) (*Report, error) {
	orphans, err := s.repo.FindOrphanReactions(ctx)
	if err != nil {
		return nil, err
	}

	mismatches, err := s.repo.FindCounterMismatches(ctx)
	if err != nil {
		return nil, err
	}

	usersWithoutStats, err := s.repo.FindUsersWithoutStats(ctx)
	if err != nil {
		return nil, err
	}

	stale, err := s.repo.FindStaleCourageTotals(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		MismatchedCounters: mismatches,
		UsersWithoutStats:  usersWithoutStats,
		StaleCourageTotals: stale,
	}
	for _, orphan := range orphans {
		report.OrphanedReactions = append(report.OrphanedReactions, OrphanedReaction{
			ReactionID: orphan.ID,
			UserID:     orphan.UserID,
			FailID:     orphan.FailID,
			Type:       string(orphan.Type),
		})
	}
	report.Healthy = len(report.OrphanedReactions) == 0 &&
		len(report.MismatchedCounters) == 0 &&
		len(report.UsersWithoutStats) == 0 &&
		len(report.StaleCourageTotals) == 0

	return report, nil
}

// RepairFail recomputes the reaction counters for one fail from the
// reactions table and overwrites the cached rows. A fail with no reactions
// left ends with zero counters, which is a legitimate state.
func (s *integrityService) RepairFail(ctx context.Context, failID uuid.UUID) error {
	exists, err := s.repo.FailExists(ctx, failID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("fail %s does not exist", failID)
	}

	counts, err := s.repo.RecountReactions(ctx, failID)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceCounters(ctx, failID, counts); err != nil {
		return err
	}

	s.dropCountCache(ctx, failID)
	log.Printf("Repaired reaction counters for fail %s (%d types)", failID, len(counts))
	return nil
}

func (s *integrityService) RepairAll(ctx context.Context) (*RepairSummary, error) {
	summary := &RepairSummary{}

	// Orphans first: a dangling reaction would otherwise keep feeding
	// wrong recounts. Deletion is a correction, the only case where
	// activity records legitimately disappear.
	deleted, err := s.repo.DeleteOrphanReactions(ctx)
	if err != nil {
		return nil, err
	}
	if deleted > 0 {
		log.Printf("Integrity repair: deleted %d orphaned reactions", deleted)
	}
	summary.OrphansDeleted = deleted

	mismatches, err := s.repo.FindCounterMismatches(ctx)
	if err != nil {
		return nil, err
	}

	repaired := make(map[uuid.UUID]bool)
	for _, mismatch := range mismatches {
		if repaired[mismatch.FailID] {
			continue
		}
		repaired[mismatch.FailID] = true

		counts, err := s.repo.RecountReactions(ctx, mismatch.FailID)
		if err != nil {
			log.Printf("Integrity repair: recount failed for fail %s: %v", mismatch.FailID, err)
			continue
		}
		if err := s.repo.ReplaceCounters(ctx, mismatch.FailID, counts); err != nil {
			log.Printf("Integrity repair: counter rewrite failed for fail %s: %v", mismatch.FailID, err)
			continue
		}
		s.dropCountCache(ctx, mismatch.FailID)
		summary.CountersRepaired = append(summary.CountersRepaired, mismatch.FailID)
	}

	// Courage totals: rebuild the cached all-time sum from the log, both
	// for drifted rows and for users missing a stats row entirely.
	stale, err := s.repo.FindStaleCourageTotals(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range stale {
		if err := s.repo.SetCourageTotal(ctx, entry.UserID, entry.Actual); err != nil {
			log.Printf("Integrity repair: courage total rewrite failed for user %s: %v", entry.UserID, err)
			continue
		}
		summary.TotalsRebuilt = append(summary.TotalsRebuilt, entry.UserID)
	}

	missing, err := s.repo.FindUsersWithoutStats(ctx)
	if err != nil {
		return nil, err
	}
	for _, userID := range missing {
		total, err := s.repo.SumCouragePoints(ctx, userID)
		if err != nil {
			log.Printf("Integrity repair: point sum failed for user %s: %v", userID, err)
			continue
		}
		if err := s.repo.SetCourageTotal(ctx, userID, total); err != nil {
			log.Printf("Integrity repair: stats row create failed for user %s: %v", userID, err)
			continue
		}
		summary.TotalsRebuilt = append(summary.TotalsRebuilt, userID)
	}

	log.Printf("Integrity repair done: %d orphans deleted, %d fails repaired, %d courage totals rebuilt",
		summary.OrphansDeleted, len(summary.CountersRepaired), len(summary.TotalsRebuilt))
	return summary, nil
}

// dropCountCache removes the redis mirror so the next read rebuilds it
// from the freshly repaired DB rows.
func (s *integrityService) dropCountCache(ctx context.Context, failID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	key := fmt.Sprintf("counts:fail:%s", failID)
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		log.Printf("Failed to drop reaction cache for fail %s: %v", failID, err)
	}
}
