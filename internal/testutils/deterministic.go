// Package testutils provides deterministic generators, a scripted vendor and sample
// builders for ggpbench tests.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns incrementing timestamps starting at 2025-01-01T00:00:00Z, one second
// apart. It is safe for concurrent use.
type Clock struct {
	mu    sync.Mutex
	ticks int64
}

// NewClock creates a deterministic clock.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the next deterministic timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t := base.Add(time.Duration(c.ticks) * time.Second)
	c.ticks++
	return t
}

// RunIDs generates UUID-shaped identifiers in a fixed sequence:
// 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, ...
type RunIDs struct {
	mu      sync.Mutex
	counter uint64
}

// NewRunIDs creates a deterministic ID sequence.
func NewRunIDs() *RunIDs {
	return &RunIDs{}
}

// Next returns the next identifier. The result always parses as a version 4 UUID.
func (g *RunIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	id := fmt.Sprintf("%08x-0000-4000-8000-%012x", g.counter, g.counter)
	return uuid.MustParse(id).String()
}
