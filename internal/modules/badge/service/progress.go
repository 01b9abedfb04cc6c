package service

import (
	"sort"

	"failboard.id/failboard/internal/entity"
)

const maxNextChallenges = 4

// Challenge is one not-yet-unlocked badge with partial progress.
type Challenge struct {
	BadgeID  string             `json:"badge_id"`
	Name     string             `json:"name"`
	Icon     string             `json:"icon"`
	Rarity   entity.BadgeRarity `json:"rarity"`
	Current  int64              `json:"current"`
	Required int64              `json:"required"`
	Progress float64            `json:"progress"` // (0, 1]
}

// nextChallenges ranks locked badges by how close the user is. Badges with
// zero progress are hidden so the full catalog is not revealed up front;
// the four most advanced are returned, most advanced first.
func nextChallenges(defs []entity.BadgeDefinition, owned map[string]bool, stats *UserActivityStats) []Challenge {
	challenges := make([]Challenge, 0, len(defs))

	for i := range defs {
		def := &defs[i]
		if owned[def.ID] {
			continue
		}
		if def.RequirementValue <= 0 {
			continue
		}

		current, ok := statFor(def.RequirementType, stats, int64(len(defs)))
		if !ok {
			// Unknown requirement, same fail-closed treatment as the
			// evaluator: no progress shown.
			continue
		}

		required := int64(def.RequirementValue)
		if current < 0 {
			current = 0
		}
		if current > required {
			current = required
		}
		if current == 0 {
			continue
		}

		challenges = append(challenges, Challenge{
			BadgeID:  def.ID,
			Name:     def.Name,
			Icon:     def.Icon,
			Rarity:   def.Rarity,
			Current:  current,
			Required: required,
			Progress: float64(current) / float64(required),
		})
	}

	sort.SliceStable(challenges, func(i, j int) bool {
		return challenges[i].Progress > challenges[j].Progress
	})

	if len(challenges) > maxNextChallenges {
		challenges = challenges[:maxNextChallenges]
	}
	return challenges
}
