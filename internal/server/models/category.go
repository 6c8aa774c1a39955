package models

// DefaultCategoryColor is applied when a category is created without one.
const DefaultCategoryColor = "#007bff"

// Category belongs to exactly one user, same ownership rules as Task.
type Category struct {
	ID     string
	Name   string
	Color  string
	UserID string

	// TaskCount is computed by list queries, not stored.
	TaskCount int
}
