package model

import (
	"sync"
	"time"
)

// Clock counts down one side's remaining time. A zero budget means untimed.
type Clock struct {
	mu          sync.Mutex
	budget      time.Duration
	timeLeft    time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
	now         func() time.Time
}

func NewClock(initialTime time.Duration) *Clock {
	return &Clock{
		budget:    initialTime,
		timeLeft:  initialTime,
		isRunning: false,
		now:       time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		c.isRunning = false
	}
}

// Reset stops the clock and restores the full budget.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeLeft = c.budget
	c.isRunning = false
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return c.timeLeft - c.now().Sub(c.lastStarted)
	}
	return c.timeLeft
}

func (c *Clock) Timed() bool {
	return c.budget > 0
}

// Expired is always false for an untimed clock.
func (c *Clock) Expired() bool {
	return c.Timed() && c.GetTimeLeft() <= 0
}
