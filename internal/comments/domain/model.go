package domain

import "time"

// Comment is an append-only child of a project.
type Comment struct {
	ID        int64
	ProjectID int64
	UserID    int64
	Text      string
	CreatedAt time.Time
}

type Author struct {
	ID       int64
	FullName string
	Email    string
	Role     string
}

type CommentWithAuthor struct {
	Comment
	Author Author
}
