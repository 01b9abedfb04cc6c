package service

import (
	"testing"

	"failboard.id/failboard/internal/entity"
	"github.com/stretchr/testify/assert"
)

func catalogOf(defs ...entity.BadgeDefinition) []entity.BadgeDefinition {
	return defs
}

func def(id string, reqType entity.RequirementType, value int) entity.BadgeDefinition {
	return entity.BadgeDefinition{
		ID:               id,
		Name:             id,
		Rarity:           entity.RarityCommon,
		RequirementType:  reqType,
		RequirementValue: value,
	}
}

func TestNextChallengesProgressBounds(t *testing.T) {
	stats := &UserActivityStats{FailCount: 9, CommentCount: 50}
	defs := catalogOf(
		def("ten-fails", entity.ReqFailCount, 10),
		def("ten-comments", entity.ReqCommentCount, 10), // already exceeded
	)

	challenges := nextChallenges(defs, map[string]bool{}, stats)

	for _, ch := range challenges {
		assert.Greater(t, ch.Progress, 0.0)
		assert.LessOrEqual(t, ch.Progress, 1.0)
		assert.GreaterOrEqual(t, ch.Current, int64(0))
		assert.LessOrEqual(t, ch.Current, ch.Required)
	}

	// 50 comments against requirement 10 clamps to current == required.
	for _, ch := range challenges {
		if ch.BadgeID == "ten-comments" {
			assert.Equal(t, int64(10), ch.Current)
			assert.Equal(t, 1.0, ch.Progress)
		}
	}
}

func TestNextChallengesHidesZeroProgress(t *testing.T) {
	stats := &UserActivityStats{FailCount: 3}
	defs := catalogOf(
		def("fails", entity.ReqFailCount, 10),
		def("comments", entity.ReqCommentCount, 10),
	)

	challenges := nextChallenges(defs, map[string]bool{}, stats)

	assert.Len(t, challenges, 1)
	assert.Equal(t, "fails", challenges[0].BadgeID)
}

func TestNextChallengesExcludesOwned(t *testing.T) {
	stats := &UserActivityStats{FailCount: 9}
	defs := catalogOf(def("fails", entity.ReqFailCount, 10))

	challenges := nextChallenges(defs, map[string]bool{"fails": true}, stats)
	assert.Empty(t, challenges)
}

func TestNextChallengesSortedAndTruncated(t *testing.T) {
	stats := &UserActivityStats{
		FailCount:        9,  // 0.9
		CommentCount:     5,  // 0.5
		CommentsReceived: 7,  // 0.7
		CouragePoints:    30, // 0.3
		CategoriesUsed:   1,  // 0.1
	}
	defs := catalogOf(
		def("a", entity.ReqFailCount, 10),
		def("b", entity.ReqCommentCount, 10),
		def("c", entity.ReqCommentsReceived, 10),
		def("d", entity.ReqCouragePoints, 100),
		def("e", entity.ReqCategoriesUsed, 10),
	)

	challenges := nextChallenges(defs, map[string]bool{}, stats)

	assert.Len(t, challenges, 4)
	assert.Equal(t, "a", challenges[0].BadgeID)
	assert.Equal(t, "c", challenges[1].BadgeID)
	assert.Equal(t, "b", challenges[2].BadgeID)
	assert.Equal(t, "d", challenges[3].BadgeID)
	for i := 1; i < len(challenges); i++ {
		assert.GreaterOrEqual(t, challenges[i-1].Progress, challenges[i].Progress)
	}
}

func TestNextChallengesSkipsUnknownRequirement(t *testing.T) {
	stats := &UserActivityStats{FailCount: 9}
	defs := catalogOf(
		def("known", entity.ReqFailCount, 10),
		def("unknown", entity.RequirementType("mystery_metric"), 10),
	)

	challenges := nextChallenges(defs, map[string]bool{}, stats)
	assert.Len(t, challenges, 1)
	assert.Equal(t, "known", challenges[0].BadgeID)
}

func TestNextChallengesExampleScenario(t *testing.T) {
	// A user at 9 of 10 reactions received shows 0.9 progress; once they
	// own the badge it disappears from challenges.
	stats := &UserActivityStats{
		ReactionsReceived: map[entity.ReactionType]int64{entity.ReactionHug: 9},
	}
	defs := catalogOf(def("loved", entity.ReqReactionsReceived, 10))

	challenges := nextChallenges(defs, map[string]bool{}, stats)
	assert.Len(t, challenges, 1)
	assert.Equal(t, int64(9), challenges[0].Current)
	assert.Equal(t, int64(10), challenges[0].Required)
	assert.InDelta(t, 0.9, challenges[0].Progress, 1e-9)

	challenges = nextChallenges(defs, map[string]bool{"loved": true}, stats)
	assert.Empty(t, challenges)
}
