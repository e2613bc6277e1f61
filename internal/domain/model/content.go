package model

import "time"

// BlogPost is the promotion target for completed blog_post jobs. Promoted
// drafts are always created unpublished; publishing is an editorial action
// outside this subsystem.
type BlogPost struct {
	ID          string
	Slug        string
	Title       string
	Excerpt     string
	Content     string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AITool is the promotion target for completed tool_description jobs.
// Promotion overwrites only Description; UpdatedAt doubles as the
// optimistic-concurrency version for that write.
type AITool struct {
	ID          string
	Slug        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
