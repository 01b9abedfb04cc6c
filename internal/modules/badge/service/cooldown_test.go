package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownFirstCallPasses(t *testing.T) {
	cd := NewCooldown(2 * time.Second)
	assert.True(t, cd.ShouldEvaluate(time.Now()))
}

func TestCooldownDropsWithinWindow(t *testing.T) {
	cd := NewCooldown(2 * time.Second)
	base := time.Now()

	assert.True(t, cd.ShouldEvaluate(base))
	assert.False(t, cd.ShouldEvaluate(base.Add(500*time.Millisecond)))
	assert.False(t, cd.ShouldEvaluate(base.Add(1999*time.Millisecond)))
}

func TestCooldownReopensAfterWindow(t *testing.T) {
	cd := NewCooldown(2 * time.Second)
	base := time.Now()

	assert.True(t, cd.ShouldEvaluate(base))
	assert.True(t, cd.ShouldEvaluate(base.Add(2*time.Second)))
}

func TestCooldownDroppedEventDoesNotExtendWindow(t *testing.T) {
	cd := NewCooldown(2 * time.Second)
	base := time.Now()

	assert.True(t, cd.ShouldEvaluate(base))
	// A dropped event must not reset the timer.
	assert.False(t, cd.ShouldEvaluate(base.Add(1*time.Second)))
	assert.True(t, cd.ShouldEvaluate(base.Add(2100*time.Millisecond)))
}

func TestCooldownDefaultWindow(t *testing.T) {
	cd := NewCooldown(0)
	base := time.Now()

	assert.True(t, cd.ShouldEvaluate(base))
	assert.False(t, cd.ShouldEvaluate(base.Add(1*time.Second)))
	assert.True(t, cd.ShouldEvaluate(base.Add(DefaultCooldownWindow)))
}
