package service

import (
	"context"
	"sort"
	"time"

	"failboard.id/failboard/internal/entity"
	badgeRepo "failboard.id/failboard/internal/modules/badge/repository"
	"github.com/google/uuid"
)

// PopularFailThreshold is the reaction total at which a fail counts as
// popular for badge purposes.
const PopularFailThreshold = 10

// Night is 22:00 through 04:59, early is 05:00 through 07:59, local server
// time. These windows match the badge copy ("night owl", "early bird").
const (
	nightStartHour = 22
	nightEndHour   = 5
	earlyStartHour = 5
	earlyEndHour   = 8
)

// UserActivityStats is the per-user snapshot one evaluation pass runs
// against. It is computed fresh every pass and never persisted; concurrent
// passes for the same user may see slightly different snapshots, which is
// fine because the grant uniqueness constraint is what enforces
// exactly-once.
type UserActivityStats struct {
	FailCount          int64
	CommentCount       int64
	CommentsReceived   int64
	ReactionsGiven     map[entity.ReactionType]int64
	ReactionsReceived  map[entity.ReactionType]int64
	CouragePoints      int64
	StreakDays         int64
	CommentStreakDays  int64
	CategoriesUsed     int64
	MaxReactionsSingle int64
	MaxCommentsSingle  int64
	BadgesUnlocked     int64
	AccountAgeDays     int64
	FailsSingleDay     int64
	DistinctReactors   int64
	DistinctAuthors    int64
	WeekendFails       int64
	NightFails         int64
	EarlyFails         int64
	PopularFails       int64
}

func (s UserActivityStats) TotalReactionsGiven() int64 {
	var total int64
	for _, n := range s.ReactionsGiven {
		total += n
	}
	return total
}

func (s UserActivityStats) TotalReactionsReceived() int64 {
	var total int64
	for _, n := range s.ReactionsReceived {
		total += n
	}
	return total
}

// TotalActivity is the catch-all engagement metric: everything the user
// has done plus everything done to them.
func (s UserActivityStats) TotalActivity() int64 {
	return s.FailCount + s.CommentCount + s.TotalReactionsGiven() +
		s.TotalReactionsReceived() + s.CommentsReceived
}

// StatsAggregator computes a UserActivityStats snapshot from the source
// tables. Safe to call concurrently for different users.
type StatsAggregator interface {
	ComputeStats(ctx context.Context, userID uuid.UUID) (*UserActivityStats, error)
}

type statsAggregator struct {
	statsRepo badgeRepo.StatsRepository
	badgeRepo badgeRepo.BadgeRepository
	now       func() time.Time
}

func NewStatsAggregator(statsRepo badgeRepo.StatsRepository, repo badgeRepo.BadgeRepository) StatsAggregator {
	return &statsAggregator{
		statsRepo: statsRepo,
		badgeRepo: repo,
		now:       time.Now,
	}
}

func (a *statsAggregator) ComputeStats(ctx context.Context, userID uuid.UUID) (*UserActivityStats, error) {
	stats := &UserActivityStats{}
	var err error

	if stats.FailCount, err = a.statsRepo.CountFails(ctx, userID); err != nil {
		return nil, err
	}
	if stats.CommentCount, err = a.statsRepo.CountComments(ctx, userID); err != nil {
		return nil, err
	}
	if stats.CommentsReceived, err = a.statsRepo.CountCommentsReceived(ctx, userID); err != nil {
		return nil, err
	}
	if stats.ReactionsGiven, err = a.statsRepo.ReactionsGivenByType(ctx, userID); err != nil {
		return nil, err
	}
	if stats.ReactionsReceived, err = a.statsRepo.ReactionsReceivedByType(ctx, userID); err != nil {
		return nil, err
	}
	if stats.CouragePoints, err = a.statsRepo.CouragePoints(ctx, userID); err != nil {
		return nil, err
	}
	if stats.CategoriesUsed, err = a.statsRepo.CountCategoriesUsed(ctx, userID); err != nil {
		return nil, err
	}
	if stats.MaxReactionsSingle, err = a.statsRepo.MaxReactionsOnSingleFail(ctx, userID); err != nil {
		return nil, err
	}
	if stats.MaxCommentsSingle, err = a.statsRepo.MaxCommentsOnSingleFail(ctx, userID); err != nil {
		return nil, err
	}
	if stats.BadgesUnlocked, err = a.badgeRepo.CountGrants(ctx, userID); err != nil {
		return nil, err
	}
	if stats.DistinctReactors, err = a.statsRepo.CountDistinctReactors(ctx, userID); err != nil {
		return nil, err
	}
	if stats.DistinctAuthors, err = a.statsRepo.CountDistinctAuthorsReactedTo(ctx, userID); err != nil {
		return nil, err
	}
	if stats.PopularFails, err = a.statsRepo.CountPopularFails(ctx, userID, PopularFailThreshold); err != nil {
		return nil, err
	}

	createdAt, err := a.statsRepo.AccountCreatedAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.AccountAgeDays = int64(a.now().Sub(createdAt).Hours() / 24)

	failTimes, err := a.statsRepo.FailCreationTimes(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.StreakDays = LongestDailyStreak(failTimes)
	stats.FailsSingleDay = maxPerDay(failTimes)
	stats.WeekendFails, stats.NightFails, stats.EarlyFails = timeOfDayCounts(failTimes)

	commentTimes, err := a.statsRepo.CommentCreationTimes(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.CommentStreakDays = LongestDailyStreak(commentTimes)

	return stats, nil
}

// LongestDailyStreak returns the longest run of consecutive calendar days
// with at least one activity. Multiple activities on one day count once.
func LongestDailyStreak(times []time.Time) int64 {
	if len(times) == 0 {
		return 0
	}

	daySet := make(map[string]time.Time, len(times))
	for _, t := range times {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		daySet[day.Format("2006-01-02")] = day
	}

	days := make([]time.Time, 0, len(daySet))
	for _, day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var longest, current int64 = 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

func maxPerDay(times []time.Time) int64 {
	if len(times) == 0 {
		return 0
	}

	perDay := make(map[string]int64)
	var max int64
	for _, t := range times {
		key := t.Format("2006-01-02")
		perDay[key]++
		if perDay[key] > max {
			max = perDay[key]
		}
	}
	return max
}

func timeOfDayCounts(times []time.Time) (weekend, night, early int64) {
	for _, t := range times {
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			weekend++
		}

		hour := t.Hour()
		if hour >= nightStartHour || hour < nightEndHour {
			night++
		}
		if hour >= earlyStartHour && hour < earlyEndHour {
			early++
		}
	}
	return weekend, night, early
}
