package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

const projectColumns = `
p.id, p.title, COALESCE(p.initiative, ''), COALESCE(p.client, ''),
COALESCE(p.pm, ''), COALESCE(p.lead_dev, ''), COALESCE(p.designer, ''),
COALESCE(p.design_url, ''), COALESCE(p.test_url, ''),
p.qa_analyst_id, p.status, p.created_by, p.created_at, p.updated_at`

// ProjectRepository provides persistence operations for projects and the
// child collections they own.
type ProjectRepository struct {
	q postgres.Querier
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ProjectRepository) WithTx(tx *sql.Tx) *ProjectRepository {
	return &ProjectRepository{q: tx}
}

// Get returns the bare aggregate row.
func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	q := fmt.Sprintf(`SELECT %s FROM projects p WHERE p.id = $1;`, projectColumns)
	p, err := scanProject(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Insert creates the aggregate row. created_by is written once here and
// no update path touches it again.
func (r *ProjectRepository) Insert(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	const q = `
INSERT INTO projects (title, initiative, client, pm, lead_dev, designer,
                      design_url, test_url, qa_analyst_id, status, created_by)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
        NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
RETURNING id, created_at, updated_at;
`
	out := *p
	err := r.q.QueryRowContext(ctx, q,
		p.Title, p.Initiative, p.Client, p.PM, p.LeadDev, p.Designer,
		p.DesignURL, p.TestURL, p.QAAnalystID, p.Status, p.CreatedBy,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies the scalar fields of a patch. Collections are handled by
// the replace operations, and absent fields are left untouched.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch domain.Patch) error {
	sets := make([]string, 0, 10)
	args := make([]any, 0, 11)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	addNullable := func(col string, v string) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = NULLIF($%d, '')", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Initiative != nil {
		addNullable("initiative", *patch.Initiative)
	}
	if patch.Client != nil {
		addNullable("client", *patch.Client)
	}
	if patch.PM != nil {
		addNullable("pm", *patch.PM)
	}
	if patch.LeadDev != nil {
		addNullable("lead_dev", *patch.LeadDev)
	}
	if patch.Designer != nil {
		addNullable("designer", *patch.Designer)
	}
	if patch.DesignURL != nil {
		addNullable("design_url", *patch.DesignURL)
	}
	if patch.TestURL != nil {
		addNullable("test_url", *patch.TestURL)
	}
	if patch.QAAnalystID != nil {
		add("qa_analyst_id", *patch.QAAnalystID)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	q := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d;", strings.Join(sets, ", "), len(args))

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

// Delete removes the aggregate; owned rows go with it via FK cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM projects WHERE id = $1;`
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

// List returns the projects visible under scope, narrowed by filters,
// most recently updated first, with references and collections attached.
func (r *ProjectRepository) List(ctx context.Context, scope domain.Scope, filters domain.ListFilters) ([]domain.ProjectWithRefs, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 6)

	scopeSQL, scopeArgs := scope.SQL("p", len(args)+1)
	where = append(where, scopeSQL)
	args = append(args, scopeArgs...)

	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filters.Client != "" {
		args = append(args, "%"+filters.Client+"%")
		where = append(where, fmt.Sprintf("p.client ILIKE $%d", len(args)))
	}
	if filters.AnalystID != 0 {
		args = append(args, filters.AnalystID)
		where = append(where, fmt.Sprintf("p.qa_analyst_id = $%d", len(args)))
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		args = append(args, *filters.StartDate)
		where = append(where, fmt.Sprintf("p.created_at >= $%d", len(args)))
		args = append(args, *filters.EndDate)
		where = append(where, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}

	q := fmt.Sprintf(`
SELECT %s,
       a.id, a.full_name, a.email,
       c.id, c.full_name, c.email
FROM projects p
LEFT JOIN users a ON a.id = p.qa_analyst_id
LEFT JOIN users c ON c.id = p.created_by
WHERE %s
ORDER BY p.updated_at DESC;`, projectColumns, strings.Join(where, " AND "))

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProjectWithRefs, 0, 16)
	ids := make([]int64, 0, 16)
	for rows.Next() {
		p, err := scanProjectWithRefs(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCollections(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWithRefs returns one project with references and collections.
func (r *ProjectRepository) GetWithRefs(ctx context.Context, id int64) (*domain.ProjectWithRefs, error) {
	q := fmt.Sprintf(`
SELECT %s,
       a.id, a.full_name, a.email,
       c.id, c.full_name, c.email
FROM projects p
LEFT JOIN users a ON a.id = p.qa_analyst_id
LEFT JOIN users c ON c.id = p.created_by
WHERE p.id = $1;`, projectColumns)

	rows, err := r.q.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	p, err := scanProjectWithRefs(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	single := []domain.ProjectWithRefs{*p}
	if err := r.attachCollections(ctx, single, []int64{p.ID}); err != nil {
		return nil, err
	}
	return &single[0], nil
}

func (r *ProjectRepository) attachCollections(ctx context.Context, projects []domain.ProjectWithRefs, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.ProjectWithRefs, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	devs, err := r.developersFor(ctx, ids)
	if err != nil {
		return err
	}
	for projectID, list := range devs {
		if p, ok := byID[projectID]; ok {
			p.Developers = list
		}
	}

	assets, err := r.assetsFor(ctx, ids)
	if err != nil {
		return err
	}
	for projectID, list := range assets {
		if p, ok := byID[projectID]; ok {
			p.Assets = list
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Initiative, &p.Client,
		&p.PM, &p.LeadDev, &p.Designer,
		&p.DesignURL, &p.TestURL,
		&p.QAAnalystID, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProjectWithRefs(row rowScanner) (*domain.ProjectWithRefs, error) {
	var p domain.ProjectWithRefs
	var analystID, creatorID sql.NullInt64
	var analystName, analystEmail, creatorName, creatorEmail sql.NullString

	err := row.Scan(
		&p.ID, &p.Title, &p.Initiative, &p.Client,
		&p.PM, &p.LeadDev, &p.Designer,
		&p.DesignURL, &p.TestURL,
		&p.QAAnalystID, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		&analystID, &analystName, &analystEmail,
		&creatorID, &creatorName, &creatorEmail,
	)
	if err != nil {
		return nil, err
	}

	if analystID.Valid {
		p.QAAnalyst = &domain.UserSummary{ID: analystID.Int64, FullName: analystName.String, Email: analystEmail.String}
	}
	if creatorID.Valid {
		p.Creator = &domain.UserSummary{ID: creatorID.Int64, FullName: creatorName.String, Email: creatorEmail.String}
	}
	return &p, nil
}
