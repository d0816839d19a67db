package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

const defectColumns = `
d.id, d.project_id, d.title, COALESCE(d.description, ''), d.severity, d.status,
d.reported_by, d.assigned_to, d.reported_at, d.updated_at, d.closed_at`

// DefectRepository provides persistence operations for project defects.
type DefectRepository struct {
	q postgres.Querier
}

func NewDefectRepository(db *sql.DB) *DefectRepository {
	return &DefectRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *DefectRepository) WithTx(tx *sql.Tx) *DefectRepository {
	return &DefectRepository{q: tx}
}

func (r *DefectRepository) Insert(ctx context.Context, d *domain.Defect) (*domain.Defect, error) {
	const q = `
INSERT INTO project_defects (project_id, title, description, severity, status, reported_by, assigned_to)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
RETURNING id, reported_at, updated_at;
`
	out := *d
	err := r.q.QueryRowContext(ctx, q,
		d.ProjectID, d.Title, d.Description, d.Severity, d.Status, d.ReportedBy, d.AssignedTo,
	).Scan(&out.ID, &out.ReportedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DefectRepository) Get(ctx context.Context, id int64) (*domain.Defect, error) {
	q := fmt.Sprintf(`SELECT %s FROM project_defects d WHERE d.id = $1;`, defectColumns)
	var d domain.Defect
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.ProjectID, &d.Title, &d.Description, &d.Severity, &d.Status,
		&d.ReportedBy, &d.AssignedTo, &d.ReportedAt, &d.UpdatedAt, &d.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetWithRefs returns one defect with reporter, assignee and parent title.
func (r *DefectRepository) GetWithRefs(ctx context.Context, id int64) (*domain.DefectWithRefs, error) {
	q := fmt.Sprintf(`
SELECT %s,
       rep.id, rep.full_name, rep.email,
       asg.id, asg.full_name, asg.email,
       p.title
FROM project_defects d
JOIN projects p ON p.id = d.project_id
LEFT JOIN users rep ON rep.id = d.reported_by
LEFT JOIN users asg ON asg.id = d.assigned_to
WHERE d.id = $1;`, defectColumns)

	out, err := r.scanWithRefs(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// ListByProject returns a project's defects, most recently updated first.
func (r *DefectRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.DefectWithRefs, error) {
	q := fmt.Sprintf(`
SELECT %s,
       rep.id, rep.full_name, rep.email,
       asg.id, asg.full_name, asg.email,
       p.title
FROM project_defects d
JOIN projects p ON p.id = d.project_id
LEFT JOIN users rep ON rep.id = d.reported_by
LEFT JOIN users asg ON asg.id = d.assigned_to
WHERE d.project_id = $1
ORDER BY d.updated_at DESC;`, defectColumns)

	rows, err := r.q.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DefectWithRefs, 0, 16)
	for rows.Next() {
		d, err := r.scanWithRefs(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Update applies the patch fields plus the state-machine outcome for
// status and closed_at, which the service resolves before calling.
func (r *DefectRepository) Update(ctx context.Context, id int64, patch domain.Patch, closedAt *time.Time) error {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = NULLIF($%d, '')", len(args)))
	}
	if patch.Severity != nil {
		add("severity", *patch.Severity)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.AssignedTo != nil {
		add("assigned_to", *patch.AssignedTo)
	}
	if closedAt != nil {
		add("closed_at", *closedAt)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	q := fmt.Sprintf("UPDATE project_defects SET %s WHERE id = $%d;", strings.Join(sets, ", "), len(args))

	result, err := r.q.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DefectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM project_defects WHERE id = $1;`
	result, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DefectRepository) scanWithRefs(row rowScanner) (*domain.DefectWithRefs, error) {
	var d domain.DefectWithRefs
	var repID, asgID sql.NullInt64
	var repName, repEmail, asgName, asgEmail sql.NullString

	err := row.Scan(
		&d.ID, &d.ProjectID, &d.Title, &d.Description, &d.Severity, &d.Status,
		&d.ReportedBy, &d.AssignedTo, &d.ReportedAt, &d.UpdatedAt, &d.ClosedAt,
		&repID, &repName, &repEmail,
		&asgID, &asgName, &asgEmail,
		&d.ProjectTitle,
	)
	if err != nil {
		return nil, err
	}

	if repID.Valid {
		d.Reporter = &domain.UserSummary{ID: repID.Int64, FullName: repName.String, Email: repEmail.String}
	}
	if asgID.Valid {
		d.Assignee = &domain.UserSummary{ID: asgID.Int64, FullName: asgName.String, Email: asgEmail.String}
	}
	return &d, nil
}
