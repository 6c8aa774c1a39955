package models

import "time"

// Task priorities, stored as ordinals.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Task belongs to exactly one user. UserID is set at creation and never
// changes; every query touching tasks filters on it. CategoryID is nullable
// and survives category deletion (set to nil, never cascaded).
type Task struct {
	ID          string
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
	CompletedAt *time.Time
	DueDate     *time.Time
	Priority    int
	UserID      string
	CategoryID  *string

	// Denormalized category attributes, populated by list/get queries.
	CategoryName  *string
	CategoryColor *string
}
