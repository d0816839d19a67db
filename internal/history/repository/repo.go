package repository

import (
	"context"
	"database/sql"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

// HistoryRepository appends and reads audit rows. There is deliberately no
// update or delete: project_history is insert-only from this side.
type HistoryRepository struct {
	q postgres.Querier
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *HistoryRepository) WithTx(tx *sql.Tx) *HistoryRepository {
	return &HistoryRepository{q: tx}
}

// Append inserts one audit row. Empty old/new values are stored as NULL.
func (r *HistoryRepository) Append(ctx context.Context, projectID, changedBy int64, change domain.Change) error {
	const q = `
INSERT INTO project_history (project_id, changed_by, change_type, old_value, new_value)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''));
`
	_, err := r.q.ExecContext(ctx, q, projectID, changedBy, change.Type, change.OldValue, change.NewValue)
	return err
}

// ListByProject returns a project's audit trail with the changer resolved,
// newest first.
func (r *HistoryRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.EntryWithActor, error) {
	const q = `
SELECT h.id, h.project_id, h.changed_by, h.change_type,
       COALESCE(h.old_value, ''), COALESCE(h.new_value, ''), h.timestamp,
       u.id, u.full_name, COALESCE(u.email, ''), COALESCE(u.role, '')
FROM project_history h
JOIN users u ON u.id = h.changed_by
WHERE h.project_id = $1
ORDER BY h.timestamp DESC;
`
	rows, err := r.q.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EntryWithActor, 0, 16)
	for rows.Next() {
		var e domain.EntryWithActor
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.ChangedBy, &e.Type,
			&e.OldValue, &e.NewValue, &e.Timestamp,
			&e.Actor.ID, &e.Actor.FullName, &e.Actor.Email, &e.Actor.Role,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
