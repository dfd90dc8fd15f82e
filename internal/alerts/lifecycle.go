package alerts

import "github.com/gportela85/gestor/internal/db"

// SetStatus overwrites a client's lifecycle status.
//
// Any status can follow any other, PAUSED -> TESTING included, so the
// admin can correct mis-entered states freely. No other field is
// touched; due day and sale date survive every transition.
func SetStatus(c *db.Client, status string) {
	c.Status = status
}

// Statuses lists the lifecycle states in display order.
func Statuses() []string {
	return []string{db.StatusActive, db.StatusLate, db.StatusPaused, db.StatusTesting}
}
