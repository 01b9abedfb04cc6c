package service

import (
	"log"
	"math"

	"failboard.id/failboard/internal/entity"
)

// statFor resolves the statistic a requirement type is measured against.
// Shared by the evaluator and the progress calculator so "satisfied" and
// "progress toward satisfied" can never disagree.
//
// totalBadges is the current catalog size, needed only by the relative
// badges_percentage requirement.
//
// ok is false for a requirement type this build does not understand;
// callers must treat that as never satisfied.
func statFor(reqType entity.RequirementType, stats *UserActivityStats, totalBadges int64) (current int64, ok bool) {
	switch reqType {
	case entity.ReqFailCount:
		return stats.FailCount, true
	case entity.ReqCommentCount:
		return stats.CommentCount, true
	case entity.ReqCommentsReceived:
		return stats.CommentsReceived, true
	case entity.ReqReactionsGiven:
		return stats.TotalReactionsGiven(), true
	case entity.ReqReactionsReceived:
		return stats.TotalReactionsReceived(), true
	case entity.ReqHugsGiven:
		return stats.ReactionsGiven[entity.ReactionHug], true
	case entity.ReqHugsReceived:
		return stats.ReactionsReceived[entity.ReactionHug], true
	case entity.ReqRespectGiven:
		return stats.ReactionsGiven[entity.ReactionRespect], true
	case entity.ReqRespectReceived:
		return stats.ReactionsReceived[entity.ReactionRespect], true
	case entity.ReqMeTooGiven:
		return stats.ReactionsGiven[entity.ReactionMeToo], true
	case entity.ReqMeTooReceived:
		return stats.ReactionsReceived[entity.ReactionMeToo], true
	case entity.ReqLolGiven:
		return stats.ReactionsGiven[entity.ReactionLol], true
	case entity.ReqLolReceived:
		return stats.ReactionsReceived[entity.ReactionLol], true
	case entity.ReqCouragePoints:
		return stats.CouragePoints, true
	case entity.ReqStreakDays:
		return stats.StreakDays, true
	case entity.ReqCommentStreakDays:
		return stats.CommentStreakDays, true
	case entity.ReqCategoriesUsed:
		return stats.CategoriesUsed, true
	case entity.ReqMaxReactionsSingle:
		return stats.MaxReactionsSingle, true
	case entity.ReqMaxCommentsSingle:
		return stats.MaxCommentsSingle, true
	case entity.ReqBadgesUnlocked:
		return stats.BadgesUnlocked, true
	case entity.ReqBadgesPercentage:
		// Relative measure: recomputed every pass because the denominator
		// grows with the catalog.
		if totalBadges == 0 {
			return 0, true
		}
		pct := float64(stats.BadgesUnlocked) / float64(totalBadges) * 100
		return int64(math.Floor(pct)), true
	case entity.ReqAccountAgeDays:
		return stats.AccountAgeDays, true
	case entity.ReqFailsSingleDay:
		return stats.FailsSingleDay, true
	case entity.ReqDistinctReactors:
		return stats.DistinctReactors, true
	case entity.ReqDistinctAuthorsReacted:
		return stats.DistinctAuthors, true
	case entity.ReqWeekendFails:
		return stats.WeekendFails, true
	case entity.ReqNightFails:
		return stats.NightFails, true
	case entity.ReqEarlyFails:
		return stats.EarlyFails, true
	case entity.ReqPopularFails:
		return stats.PopularFails, true
	case entity.ReqTotalActivity:
		return stats.TotalActivity(), true
	}
	return 0, false
}

// IsSatisfied reports whether the stats snapshot meets a badge's
// requirement. Unknown requirement types fail closed: logged, never
// satisfied.
func IsSatisfied(def *entity.BadgeDefinition, stats *UserActivityStats, totalBadges int64) bool {
	current, ok := statFor(def.RequirementType, stats, totalBadges)
	if !ok {
		log.Printf("WARNING: badge %s has unknown requirement type %q, treating as unsatisfied", def.ID, def.RequirementType)
		return false
	}
	return current >= int64(def.RequirementValue)
}
