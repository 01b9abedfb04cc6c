package service

import (
	"testing"

	"failboard.id/failboard/internal/entity"
	"github.com/stretchr/testify/assert"
)

func defWith(reqType entity.RequirementType, value int) *entity.BadgeDefinition {
	return &entity.BadgeDefinition{
		ID:               "test-badge",
		Name:             "Test Badge",
		Rarity:           entity.RarityCommon,
		RequirementType:  reqType,
		RequirementValue: value,
	}
}

func TestIsSatisfiedThreshold(t *testing.T) {
	stats := &UserActivityStats{FailCount: 9}
	def := defWith(entity.ReqFailCount, 10)

	assert.False(t, IsSatisfied(def, stats, 10))

	stats.FailCount = 10
	assert.True(t, IsSatisfied(def, stats, 10))

	stats.FailCount = 11
	assert.True(t, IsSatisfied(def, stats, 10))
}

func TestIsSatisfiedUnknownTypeFailsClosed(t *testing.T) {
	stats := &UserActivityStats{FailCount: 1000000, CouragePoints: 1000000}
	def := defWith(entity.RequirementType("does_not_exist"), 1)

	assert.False(t, IsSatisfied(def, stats, 10))
}

func TestIsSatisfiedReactionTypes(t *testing.T) {
	stats := &UserActivityStats{
		ReactionsGiven: map[entity.ReactionType]int64{
			entity.ReactionHug: 5,
			entity.ReactionLol: 2,
		},
		ReactionsReceived: map[entity.ReactionType]int64{
			entity.ReactionRespect: 3,
		},
	}

	assert.True(t, IsSatisfied(defWith(entity.ReqHugsGiven, 5), stats, 10))
	assert.False(t, IsSatisfied(defWith(entity.ReqHugsGiven, 6), stats, 10))
	assert.True(t, IsSatisfied(defWith(entity.ReqReactionsGiven, 7), stats, 10))
	assert.True(t, IsSatisfied(defWith(entity.ReqRespectReceived, 3), stats, 10))
	assert.False(t, IsSatisfied(defWith(entity.ReqLolReceived, 1), stats, 10))
}

func TestBadgesPercentageIsRelative(t *testing.T) {
	stats := &UserActivityStats{BadgesUnlocked: 5}
	def := defWith(entity.ReqBadgesPercentage, 50)

	// 5 of 10 = 50%
	assert.True(t, IsSatisfied(def, stats, 10))

	// Catalog grew: 5 of 20 = 25%
	assert.False(t, IsSatisfied(def, stats, 20))
}

func TestBadgesPercentageEmptyCatalog(t *testing.T) {
	stats := &UserActivityStats{BadgesUnlocked: 0}
	def := defWith(entity.ReqBadgesPercentage, 1)

	assert.False(t, IsSatisfied(def, stats, 0))
}

func TestEveryKnownRequirementTypeResolves(t *testing.T) {
	stats := &UserActivityStats{
		ReactionsGiven:    map[entity.ReactionType]int64{},
		ReactionsReceived: map[entity.ReactionType]int64{},
	}

	for _, reqType := range entity.AllRequirementTypes {
		_, ok := statFor(reqType, stats, 10)
		assert.True(t, ok, "requirement type %s has no stat mapping", reqType)
	}
}

func TestTotalActivitySumsBothDirections(t *testing.T) {
	stats := &UserActivityStats{
		FailCount:        2,
		CommentCount:     3,
		CommentsReceived: 4,
		ReactionsGiven: map[entity.ReactionType]int64{
			entity.ReactionHug: 5,
		},
		ReactionsReceived: map[entity.ReactionType]int64{
			entity.ReactionMeToo: 6,
		},
	}

	current, ok := statFor(entity.ReqTotalActivity, stats, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(20), current)
}
