package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
)

// Child collections have full-replace semantics: the incoming slice is
// the complete new collection. Replacing with an empty slice clears the
// collection. Both operations run on whatever handle the repository is
// bound to, so inside a unit of work they roll back with it.

// ReplaceDevelopers swaps the project's developer batch for names.
func (r *ProjectRepository) ReplaceDevelopers(ctx context.Context, projectID int64, names []string) error {
	const del = `DELETE FROM project_developers WHERE project_id = $1;`
	if _, err := r.q.ExecContext(ctx, del, projectID); err != nil {
		return err
	}

	const ins = `INSERT INTO project_developers (project_id, developer_name) VALUES ($1, $2);`
	for _, name := range names {
		if _, err := r.q.ExecContext(ctx, ins, projectID, name); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAssets swaps the project's asset batch for urls.
func (r *ProjectRepository) ReplaceAssets(ctx context.Context, projectID int64, urls []string) error {
	const del = `DELETE FROM project_assets WHERE project_id = $1;`
	if _, err := r.q.ExecContext(ctx, del, projectID); err != nil {
		return err
	}

	const ins = `INSERT INTO project_assets (project_id, asset_url) VALUES ($1, $2);`
	for _, url := range urls {
		if _, err := r.q.ExecContext(ctx, ins, projectID, url); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProjectRepository) developersFor(ctx context.Context, projectIDs []int64) (map[int64][]domain.Developer, error) {
	q := fmt.Sprintf(`
SELECT id, project_id, developer_name
FROM project_developers
WHERE project_id IN (%s)
ORDER BY id;`, placeholders(len(projectIDs)))

	rows, err := r.q.QueryContext(ctx, q, int64Args(projectIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.Developer, len(projectIDs))
	for rows.Next() {
		var d domain.Developer
		var projectID int64
		if err := rows.Scan(&d.ID, &projectID, &d.Name); err != nil {
			return nil, err
		}
		out[projectID] = append(out[projectID], d)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) assetsFor(ctx context.Context, projectIDs []int64) (map[int64][]domain.Asset, error) {
	q := fmt.Sprintf(`
SELECT id, project_id, asset_url
FROM project_assets
WHERE project_id IN (%s)
ORDER BY id;`, placeholders(len(projectIDs)))

	rows, err := r.q.QueryContext(ctx, q, int64Args(projectIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.Asset, len(projectIDs))
	for rows.Next() {
		var a domain.Asset
		var projectID int64
		if err := rows.Scan(&a.ID, &projectID, &a.URL); err != nil {
			return nil, err
		}
		out[projectID] = append(out[projectID], a)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
