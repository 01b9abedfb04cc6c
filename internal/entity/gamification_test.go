package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// The actor index must span (actor, action, reference). A unique index on
// actor_id alone would reject every award an actor funds after their first
// one, silently freezing courage accrual.
func TestCouragePointLogActorIndexIsComposite(t *testing.T) {
	s, err := schema.Parse(&CouragePointLog{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	var idx *schema.Index
	for _, candidate := range s.ParseIndexes() {
		if candidate.Name == "idx_courage_actor" {
			idx = candidate
			break
		}
	}
	require.NotNil(t, idx)

	assert.Equal(t, "UNIQUE", idx.Class)
	require.Len(t, idx.Fields, 3)
	assert.Equal(t, "ActorID", idx.Fields[0].Name)
	assert.Equal(t, "ActionType", idx.Fields[1].Name)
	assert.Equal(t, "ReferenceID", idx.Fields[2].Name)
}
