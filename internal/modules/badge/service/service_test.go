package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"failboard.id/failboard/internal/entity"
	"failboard.id/failboard/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBadgeRepo is an in-memory BadgeRepository with the same
// insert-if-absent semantics as the unique index in postgres.
type fakeBadgeRepo struct {
	mu     sync.Mutex
	defs   []entity.BadgeDefinition
	grants map[string]time.Time // userID + "/" + badgeID
}

func newFakeBadgeRepo(defs ...entity.BadgeDefinition) *fakeBadgeRepo {
	return &fakeBadgeRepo{
		defs:   defs,
		grants: make(map[string]time.Time),
	}
}

func grantKey(userID uuid.UUID, badgeID string) string {
	return userID.String() + "/" + badgeID
}

func (f *fakeBadgeRepo) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	return f.defs, nil
}

func (f *fakeBadgeRepo) GetDefinition(ctx context.Context, id string) (*entity.BadgeDefinition, error) {
	for i := range f.defs {
		if f.defs[i].ID == id {
			return &f.defs[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeBadgeRepo) CreateDefinition(ctx context.Context, def *entity.BadgeDefinition) error {
	f.defs = append(f.defs, *def)
	return nil
}

func (f *fakeBadgeRepo) UpdateDefinition(ctx context.Context, def *entity.BadgeDefinition) error {
	for i := range f.defs {
		if f.defs[i].ID == def.ID {
			f.defs[i] = *def
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeBadgeRepo) DeleteDefinition(ctx context.Context, id string) error {
	for i := range f.defs {
		if f.defs[i].ID == id {
			f.defs = append(f.defs[:i], f.defs[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeBadgeRepo) GetUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var badges []entity.UserBadge
	for _, def := range f.defs {
		if at, ok := f.grants[grantKey(userID, def.ID)]; ok {
			badges = append(badges, entity.UserBadge{
				UserID:     userID,
				BadgeID:    def.ID,
				UnlockedAt: at,
			})
		}
	}
	return badges, nil
}

func (f *fakeBadgeRepo) InsertGrant(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := grantKey(userID, badgeID)
	if _, exists := f.grants[key]; exists {
		return false, nil
	}
	f.grants[key] = time.Now()
	return true, nil
}

func (f *fakeBadgeRepo) CountGrants(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for key := range f.grants {
		if key[:36] == userID.String() {
			count++
		}
	}
	return count, nil
}

type fakeAggregator struct {
	stats *UserActivityStats
	err   error
}

func (f *fakeAggregator) ComputeStats(ctx context.Context, userID uuid.UUID) (*UserActivityStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type fakeCatalog struct {
	repo *fakeBadgeRepo
	err  error
}

func (f *fakeCatalog) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.repo.ListDefinitions(ctx)
}

func (f *fakeCatalog) Invalidate(ctx context.Context) {}

type failingNotifier struct{}

func (failingNotifier) CreateNotification(ctx context.Context, n *entity.Notification) error {
	return errors.New("notification backend down")
}
func (failingNotifier) GetNotifications(userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return nil, nil
}
func (failingNotifier) MarkAsRead(id uuid.UUID) error               { return nil }
func (failingNotifier) MarkAllAsRead(userID uuid.UUID) error        { return nil }
func (failingNotifier) UnreadCount(userID uuid.UUID) (int64, error) { return 0, nil }

func newTestService(repo *fakeBadgeRepo, agg StatsAggregator, catalogErr error) (BadgeService, *events.Bus) {
	bus := events.NewBus()
	svc := NewBadgeService(
		repo,
		&fakeCatalog{repo: repo, err: catalogErr},
		agg,
		NewCooldown(2*time.Second),
		failingNotifier{},
		bus,
	)
	return svc, bus
}

func TestEvaluateAndGrantFirstFail(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, _ := newTestService(repo, agg, nil)

	userID := uuid.New()

	unlocked := svc.EvaluateAndGrant(context.Background(), userID)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-fail", unlocked[0].ID)

	// Second call: already granted, empty result, no error.
	unlocked = svc.EvaluateAndGrant(context.Background(), userID)
	assert.Empty(t, unlocked)
}

func TestEvaluateAndGrantConcurrentIdempotent(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, _ := newTestService(repo, agg, nil)

	userID := uuid.New()

	const attempts = 8
	results := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- len(svc.EvaluateAndGrant(context.Background(), userID))
		}()
	}
	wg.Wait()
	close(results)

	totalNewlyUnlocked := 0
	for n := range results {
		totalNewlyUnlocked += n
	}

	// Exactly one row, reported newly unlocked by at most one call.
	assert.LessOrEqual(t, totalNewlyUnlocked, 1)
	count, err := repo.CountGrants(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEvaluateAndGrantStatsFailureYieldsEmpty(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{err: errors.New("db down")}
	svc, _ := newTestService(repo, agg, nil)

	unlocked := svc.EvaluateAndGrant(context.Background(), uuid.New())
	assert.Empty(t, unlocked)
}

func TestEvaluateAndGrantCatalogFailureYieldsEmpty(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, _ := newTestService(repo, agg, errors.New("redis and db down"))

	unlocked := svc.EvaluateAndGrant(context.Background(), uuid.New())
	assert.Empty(t, unlocked)
}

func TestEvaluateAndGrantEmptyCatalogIsLegitimate(t *testing.T) {
	repo := newFakeBadgeRepo()
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 100}}
	svc, _ := newTestService(repo, agg, nil)

	unlocked := svc.EvaluateAndGrant(context.Background(), uuid.New())
	assert.Empty(t, unlocked)
}

func TestEvaluateAndGrantSurvivesNotificationFailure(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, _ := newTestService(repo, agg, nil)

	// failingNotifier always errors; the grant must still land.
	unlocked := svc.EvaluateAndGrant(context.Background(), uuid.New())
	assert.Len(t, unlocked, 1)
}

func TestUnlockEventEmitted(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, bus := newTestService(repo, agg, nil)

	var received []events.Event
	bus.Subscribe(events.BadgeUnlocked, func(e events.Event) {
		received = append(received, e)
	})

	userID := uuid.New()
	svc.EvaluateAndGrant(context.Background(), userID)

	require.Len(t, received, 1)
	assert.Equal(t, userID, received[0].ActorID)
	unlockedDef, ok := received[0].Payload.(entity.BadgeDefinition)
	require.True(t, ok)
	assert.Equal(t, "first-fail", unlockedDef.ID)
}

func TestHandleActivityCooldownDropsSecondEvent(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))

	evaluations := 0
	agg := &countingAggregator{inner: &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}, count: &evaluations}
	svc, _ := newTestService(repo, agg, nil)

	e := events.Event{Type: events.FailCreated, ActorID: uuid.New()}
	svc.HandleActivity(e)
	svc.HandleActivity(e) // inside the window, dropped

	assert.Equal(t, 1, evaluations)
}

func TestHandleActivityEvaluatesRecipientToo(t *testing.T) {
	repo := newFakeBadgeRepo(def("first-fail", entity.ReqFailCount, 1))
	agg := &fakeAggregator{stats: &UserActivityStats{FailCount: 1}}
	svc, _ := newTestService(repo, agg, nil)

	actor := uuid.New()
	recipient := uuid.New()
	svc.HandleActivity(events.Event{
		Type:        events.ReactionGiven,
		ActorID:     actor,
		SubjectID:   uuid.New(),
		RecipientID: &recipient,
	})

	actorCount, _ := repo.CountGrants(context.Background(), actor)
	recipientCount, _ := repo.CountGrants(context.Background(), recipient)
	assert.Equal(t, int64(1), actorCount)
	assert.Equal(t, int64(1), recipientCount)
}

type countingAggregator struct {
	inner StatsAggregator
	count *int
}

func (c *countingAggregator) ComputeStats(ctx context.Context, userID uuid.UUID) (*UserActivityStats, error) {
	*c.count++
	return c.inner.ComputeStats(ctx, userID)
}
