package service

import (
	"sync"
	"time"
)

// Cooldown debounces badge evaluation. State is one timestamp, in memory,
// per process: in a horizontally scaled deployment each instance cools down
// on its own. An event arriving inside the window is dropped outright, not
// queued, so a just-satisfied badge can stay locked until the next
// qualifying event shows up.
type Cooldown struct {
	mu        sync.Mutex
	window    time.Duration
	lastCheck time.Time
}

const DefaultCooldownWindow = 2 * time.Second

func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	return &Cooldown{window: window}
}

// ShouldEvaluate reports whether an evaluation may run now, and if so
// claims the window. Compare and claim happen under one lock so two
// near-simultaneous events cannot both pass.
func (c *Cooldown) ShouldEvaluate(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCheck.IsZero() && now.Sub(c.lastCheck) < c.window {
		return false
	}
	c.lastCheck = now
	return true
}
