package repository

import (
	"context"
	"database/sql"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/comments/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

// CommentRepository appends and lists project comments. Comments are
// append-only; there is no update or delete path.
type CommentRepository struct {
	q postgres.Querier
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{q: db}
}

func (r *CommentRepository) Insert(ctx context.Context, projectID, userID int64, text string) (*domain.Comment, error) {
	const q = `
INSERT INTO project_comments (project_id, user_id, comment_text)
VALUES ($1, $2, $3)
RETURNING id, project_id, user_id, comment_text, created_at;
`
	var c domain.Comment
	err := r.q.QueryRowContext(ctx, q, projectID, userID, text).
		Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Text, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByProject returns a project's comments with authors, newest first.
func (r *CommentRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.CommentWithAuthor, error) {
	const q = `
SELECT c.id, c.project_id, c.user_id, c.comment_text, c.created_at,
       u.id, u.full_name, COALESCE(u.email, ''), COALESCE(u.role, '')
FROM project_comments c
JOIN users u ON u.id = c.user_id
WHERE c.project_id = $1
ORDER BY c.created_at DESC;
`
	rows, err := r.q.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CommentWithAuthor, 0, 16)
	for rows.Next() {
		var c domain.CommentWithAuthor
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.UserID, &c.Text, &c.CreatedAt,
			&c.Author.ID, &c.Author.FullName, &c.Author.Email, &c.Author.Role,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
