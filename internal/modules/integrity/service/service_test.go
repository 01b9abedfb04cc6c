package service

import (
	"context"
	"sync"
	"testing"

	"failboard.id/failboard/internal/entity"
	integrityRepo "failboard.id/failboard/internal/modules/integrity/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIntegrityRepo keeps reactions and counters in memory and implements
// the same recount/replace contract as the postgres repository.
type fakeIntegrityRepo struct {
	mu        sync.Mutex
	fails     map[uuid.UUID]bool
	reactions []entity.Reaction
	counters  map[uuid.UUID]map[entity.ReactionType]int64
	points    map[uuid.UUID]int64
	statsRows map[uuid.UUID]int64
}

func newFakeIntegrityRepo() *fakeIntegrityRepo {
	return &fakeIntegrityRepo{
		fails:     make(map[uuid.UUID]bool),
		counters:  make(map[uuid.UUID]map[entity.ReactionType]int64),
		points:    make(map[uuid.UUID]int64),
		statsRows: make(map[uuid.UUID]int64),
	}
}

func (f *fakeIntegrityRepo) FindOrphanReactions(ctx context.Context) ([]entity.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orphans []entity.Reaction
	for _, r := range f.reactions {
		if !f.fails[r.FailID] {
			orphans = append(orphans, r)
		}
	}
	return orphans, nil
}

func (f *fakeIntegrityRepo) DeleteOrphanReactions(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []entity.Reaction
	var deleted int64
	for _, r := range f.reactions {
		if f.fails[r.FailID] {
			kept = append(kept, r)
		} else {
			deleted++
		}
	}
	f.reactions = kept
	return deleted, nil
}

func (f *fakeIntegrityRepo) FindCounterMismatches(ctx context.Context) ([]integrityRepo.CounterMismatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	actual := make(map[uuid.UUID]map[entity.ReactionType]int64)
	for _, r := range f.reactions {
		if actual[r.FailID] == nil {
			actual[r.FailID] = make(map[entity.ReactionType]int64)
		}
		actual[r.FailID][r.Type]++
	}

	var mismatches []integrityRepo.CounterMismatch
	seen := make(map[uuid.UUID]map[entity.ReactionType]bool)
	for failID, byType := range f.counters {
		if !f.fails[failID] {
			continue
		}
		for reactionType, cached := range byType {
			if seen[failID] == nil {
				seen[failID] = make(map[entity.ReactionType]bool)
			}
			seen[failID][reactionType] = true
			if cached != actual[failID][reactionType] {
				mismatches = append(mismatches, integrityRepo.CounterMismatch{
					FailID: failID, Type: reactionType,
					Cached: cached, Actual: actual[failID][reactionType],
				})
			}
		}
	}
	for failID, byType := range actual {
		if !f.fails[failID] {
			continue
		}
		for reactionType, total := range byType {
			if seen[failID] != nil && seen[failID][reactionType] {
				continue
			}
			if total != 0 {
				mismatches = append(mismatches, integrityRepo.CounterMismatch{
					FailID: failID, Type: reactionType,
					Cached: 0, Actual: total,
				})
			}
		}
	}
	return mismatches, nil
}

func (f *fakeIntegrityRepo) FindUsersWithoutStats(ctx context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var missing []uuid.UUID
	for userID := range f.points {
		if _, ok := f.statsRows[userID]; !ok {
			missing = append(missing, userID)
		}
	}
	return missing, nil
}

func (f *fakeIntegrityRepo) FindStaleCourageTotals(ctx context.Context) ([]integrityRepo.StaleCourageTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stale []integrityRepo.StaleCourageTotal
	for userID, cached := range f.statsRows {
		if cached != f.points[userID] {
			stale = append(stale, integrityRepo.StaleCourageTotal{
				UserID: userID, Cached: cached, Actual: f.points[userID],
			})
		}
	}
	return stale, nil
}

func (f *fakeIntegrityRepo) RecountReactions(ctx context.Context, failID uuid.UUID) (map[entity.ReactionType]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[entity.ReactionType]int64)
	for _, r := range f.reactions {
		if r.FailID == failID {
			counts[r.Type]++
		}
	}
	return counts, nil
}

func (f *fakeIntegrityRepo) ReplaceCounters(ctx context.Context, failID uuid.UUID, counts map[entity.ReactionType]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	replacement := make(map[entity.ReactionType]int64)
	for reactionType, count := range counts {
		if count > 0 {
			replacement[reactionType] = count
		}
	}
	f.counters[failID] = replacement
	return nil
}

func (f *fakeIntegrityRepo) SumCouragePoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points[userID], nil
}

func (f *fakeIntegrityRepo) SetCourageTotal(ctx context.Context, userID uuid.UUID, total int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsRows[userID] = total
	return nil
}

func (f *fakeIntegrityRepo) FailExists(ctx context.Context, failID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fails[failID], nil
}

func (f *fakeIntegrityRepo) addReaction(failID, userID uuid.UUID, t entity.ReactionType) {
	f.reactions = append(f.reactions, entity.Reaction{
		ID: uuid.New(), UserID: userID, FailID: failID, Type: t,
	})
}

func TestAnalyzeHealthy(t *testing.T) {
	repo := newFakeIntegrityRepo()
	failID := uuid.New()
	repo.fails[failID] = true
	repo.addReaction(failID, uuid.New(), entity.ReactionHug)
	repo.counters[failID] = map[entity.ReactionType]int64{entity.ReactionHug: 1}

	svc := NewIntegrityService(repo, nil)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Healthy)
	assert.Empty(t, report.OrphanedReactions)
	assert.Empty(t, report.MismatchedCounters)
}

func TestAnalyzeDetectsDrift(t *testing.T) {
	repo := newFakeIntegrityRepo()
	failID := uuid.New()
	repo.fails[failID] = true
	repo.addReaction(failID, uuid.New(), entity.ReactionHug)
	repo.addReaction(failID, uuid.New(), entity.ReactionHug)
	// Cached counter says 5, actual is 2.
	repo.counters[failID] = map[entity.ReactionType]int64{entity.ReactionHug: 5}

	// Orphan: reaction pointing at a fail that no longer exists.
	repo.addReaction(uuid.New(), uuid.New(), entity.ReactionLol)

	svc := NewIntegrityService(repo, nil)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Healthy)
	assert.Len(t, report.OrphanedReactions, 1)

	// The orphan's fail must not surface a second time as a counter
	// mismatch; dangling reactions are reported only as orphans.
	require.Len(t, report.MismatchedCounters, 1)
	assert.Equal(t, failID, report.MismatchedCounters[0].FailID)
	assert.Equal(t, int64(5), report.MismatchedCounters[0].Cached)
	assert.Equal(t, int64(2), report.MismatchedCounters[0].Actual)
}

func TestRepairFailRebuildsFromSource(t *testing.T) {
	repo := newFakeIntegrityRepo()
	failID := uuid.New()
	repo.fails[failID] = true
	repo.addReaction(failID, uuid.New(), entity.ReactionHug)
	repo.addReaction(failID, uuid.New(), entity.ReactionHug)
	repo.addReaction(failID, uuid.New(), entity.ReactionRespect)
	repo.counters[failID] = map[entity.ReactionType]int64{
		entity.ReactionHug: 99,
		entity.ReactionLol: 7, // stale type with no backing reactions
	}

	svc := NewIntegrityService(repo, nil)
	require.NoError(t, svc.RepairFail(context.Background(), failID))

	assert.Equal(t, int64(2), repo.counters[failID][entity.ReactionHug])
	assert.Equal(t, int64(1), repo.counters[failID][entity.ReactionRespect])
	_, hasLol := repo.counters[failID][entity.ReactionLol]
	assert.False(t, hasLol)
}

func TestRepairFailIdempotent(t *testing.T) {
	repo := newFakeIntegrityRepo()
	failID := uuid.New()
	repo.fails[failID] = true
	repo.addReaction(failID, uuid.New(), entity.ReactionMeToo)

	svc := NewIntegrityService(repo, nil)
	require.NoError(t, svc.RepairFail(context.Background(), failID))
	first := repo.counters[failID][entity.ReactionMeToo]

	require.NoError(t, svc.RepairFail(context.Background(), failID))
	assert.Equal(t, first, repo.counters[failID][entity.ReactionMeToo])

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}

func TestRepairFailNoActivityResetsToZero(t *testing.T) {
	repo := newFakeIntegrityRepo()
	failID := uuid.New()
	repo.fails[failID] = true
	repo.counters[failID] = map[entity.ReactionType]int64{entity.ReactionHug: 3}

	svc := NewIntegrityService(repo, nil)
	require.NoError(t, svc.RepairFail(context.Background(), failID))

	assert.Empty(t, repo.counters[failID])
}

func TestRepairFailUnknownFail(t *testing.T) {
	repo := newFakeIntegrityRepo()
	svc := NewIntegrityService(repo, nil)
	assert.Error(t, svc.RepairFail(context.Background(), uuid.New()))
}

func TestRepairAll(t *testing.T) {
	repo := newFakeIntegrityRepo()

	goodFail := uuid.New()
	repo.fails[goodFail] = true
	repo.addReaction(goodFail, uuid.New(), entity.ReactionHug)
	repo.counters[goodFail] = map[entity.ReactionType]int64{entity.ReactionHug: 4}

	// Two orphans on a deleted fail.
	deletedFail := uuid.New()
	repo.addReaction(deletedFail, uuid.New(), entity.ReactionLol)
	repo.addReaction(deletedFail, uuid.New(), entity.ReactionHug)

	// Courage drift: stats row says 100, log sums to 40; plus a user with
	// points but no stats row at all.
	driftedUser := uuid.New()
	repo.points[driftedUser] = 40
	repo.statsRows[driftedUser] = 100
	newUser := uuid.New()
	repo.points[newUser] = 15

	svc := NewIntegrityService(repo, nil)
	summary, err := svc.RepairAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.OrphansDeleted)
	assert.Contains(t, summary.CountersRepaired, goodFail)
	assert.Equal(t, int64(1), repo.counters[goodFail][entity.ReactionHug])
	assert.Equal(t, int64(40), repo.statsRows[driftedUser])
	assert.Equal(t, int64(15), repo.statsRows[newUser])

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}
