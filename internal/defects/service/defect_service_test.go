package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	userrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/repository"
	historyrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/history/repository"
	historyservice "github.com/ocastrobeltran/gestio-qa-backend/internal/history/service"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
	projectsdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	projectsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/repository"
)

type capturedEvents struct {
	events []notify.Event
}

func (c *capturedEvents) Publish(_ context.Context, ev notify.Event) error {
	c.events = append(c.events, ev)
	return nil
}

var defectCols = []string{
	"id", "project_id", "title", "description", "severity", "status",
	"reported_by", "assigned_to", "reported_at", "updated_at", "closed_at",
}

var defectRefCols = append(append([]string{}, defectCols...),
	"rep_id", "rep_full_name", "rep_email",
	"asg_id", "asg_full_name", "asg_email",
	"project_title")

var projectCols = []string{
	"id", "title", "initiative", "client", "pm", "lead_dev", "designer",
	"design_url", "test_url", "qa_analyst_id", "status", "created_by",
	"created_at", "updated_at",
}

func setupDefectService(t *testing.T) (*DefectService, sqlmock.Sqlmock, *sql.DB, *capturedEvents) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	events := &capturedEvents{}
	svc := NewDefectService(
		db,
		time.Second,
		repository.NewDefectRepository(db),
		projectsrepo.NewProjectRepository(db),
		userrepo.NewUserRepository(db),
		historyservice.NewHistoryService(historyrepo.NewHistoryRepository(db)),
		events,
	)
	return svc, mock, db, events
}

func defectRow(id, projectID int64, title, severity, status string, closedAt any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(defectCols).
		AddRow(id, projectID, title, "", severity, status, int64(10), nil, now, now, closedAt)
}

func defectRefRow(id, projectID int64, title, severity, status string, closedAt any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(defectRefCols).
		AddRow(id, projectID, title, "", severity, status, int64(10), nil, now, now, closedAt,
			int64(10), "Ana Pérez", "ana@acme.com", nil, nil, nil, "Portal")
}

func ownProjectRow(id, ownerID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(projectCols).
		AddRow(id, "Portal", "", "", "", "", "", "", "", ownerID, projectsdomain.StatusTesting, ownerID, now, now)
}

func TestDefectServiceUpdate(t *testing.T) {
	analyst := auth.Identity{ID: 10, Role: "analyst"}

	t.Run("status change writes audit row and closed stamp together", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusVerified, nil))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 10))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE project_defects SET`).
			WithArgs(domain.StatusClosed, sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO project_history`).
			WithArgs(int64(3), int64(10), "Cambio de estado de defecto",
				"Login roto: "+domain.StatusVerified, "Login roto: "+domain.StatusClosed).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d`).
			WillReturnRows(defectRefRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusClosed, time.Now()))

		status := domain.StatusClosed
		out, err := svc.Update(context.Background(), analyst, 5, domain.Patch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosed, out.Status)
		assert.NotNil(t, out.ClosedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-closing keeps the original stamp", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		firstClose := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, firstClose))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 10))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE project_defects SET`).
			WithArgs(domain.StatusClosed, stampMatcher{firstClose}, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO project_history`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d`).
			WillReturnRows(defectRefRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusClosed, firstClose))

		status := domain.StatusClosed
		_, err := svc.Update(context.Background(), analyst, 5, domain.Patch{Status: &status})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same status produces no audit row", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 10))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE project_defects SET`).
			WithArgs(domain.StatusOpen, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d`).
			WillReturnRows(defectRefRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))

		status := domain.StatusOpen
		_, err := svc.Update(context.Background(), analyst, 5, domain.Patch{Status: &status})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("analyst outside the project scope is rejected", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 99))

		status := domain.StatusClosed
		_, err := svc.Update(context.Background(), analyst, 5, domain.Patch{Status: &status})
		assert.ErrorIs(t, err, projectsdomain.ErrMutateForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// stampMatcher accepts a time argument equal to the expected instant.
type stampMatcher struct{ want time.Time }

func (m stampMatcher) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	return ok && ts.Equal(m.want)
}

func TestDefectServiceDelete(t *testing.T) {
	admin := auth.Identity{ID: 1, Role: "admin"}

	t.Run("delete and its audit row share the unit", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 10))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM project_defects`).
			WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO project_history`).
			WithArgs(int64(3), int64(1), "Defecto eliminado", "Login roto", "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := svc.Delete(context.Background(), admin, 5)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished defect rolls back", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d WHERE`).
			WillReturnRows(defectRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(ownProjectRow(3, 10))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM project_defects`).
			WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := svc.Delete(context.Background(), admin, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDefectServiceCreate(t *testing.T) {
	analyst := auth.Identity{ID: 10, Role: "analyst"}

	t.Run("stakeholder cannot report", func(t *testing.T) {
		svc, mock, db, _ := setupDefectService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(sqlmock.NewRows(append(append([]string{}, projectCols...),
				"a_id", "a_full_name", "a_email", "c_id", "c_full_name", "c_email")).
				AddRow(3, "Portal", "", "", "", "", "", "", "", nil, projectsdomain.StatusTesting, nil,
					time.Now(), time.Now(), nil, nil, nil, nil, nil, nil))
		mock.ExpectQuery(`SELECT id, project_id, developer_name`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "developer_name"}))
		mock.ExpectQuery(`SELECT id, project_id, asset_url`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "asset_url"}))

		_, err := svc.Create(context.Background(), auth.Identity{ID: 7, Role: "stakeholder"}, 3, CreateDefectInput{
			Title: "x", Severity: domain.SeverityMinor,
		})
		assert.ErrorIs(t, err, projectsdomain.ErrMutateForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert and audit row commit together, then notify", func(t *testing.T) {
		svc, mock, db, events := setupDefectService(t)
		defer db.Close()

		now := time.Now()
		refCols := append(append([]string{}, projectCols...),
			"a_id", "a_full_name", "a_email", "c_id", "c_full_name", "c_email")

		// project owned by someone else but created by the caller
		mock.ExpectQuery(`SELECT (.+) FROM projects p`).
			WillReturnRows(sqlmock.NewRows(refCols).
				AddRow(3, "Portal", "", "", "", "", "", "", "", int64(20), projectsdomain.StatusTesting, int64(10),
					now, now, int64(20), "Pedro", "pedro@acme.com", int64(10), "Ana", "ana@acme.com"))
		mock.ExpectQuery(`SELECT id, project_id, developer_name`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "developer_name"}))
		mock.ExpectQuery(`SELECT id, project_id, asset_url`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "asset_url"}))

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO project_defects`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "reported_at", "updated_at"}).AddRow(5, now, now))
		mock.ExpectExec(`INSERT INTO project_history`).
			WithArgs(int64(3), int64(10), "Defecto reportado", "", domain.SeverityCritical+": Login roto").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM project_defects d`).
			WillReturnRows(defectRefRow(5, 3, "Login roto", domain.SeverityCritical, domain.StatusOpen, nil))

		// actor name lookup for the notification
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "role", "created_at", "updated_at"}).
				AddRow(10, "Ana", "ana@acme.com", "x", "analyst", now, now))

		out, err := svc.Create(context.Background(), analyst, 3, CreateDefectInput{
			Title:    "Login roto",
			Severity: domain.SeverityCritical,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), out.ID)
		require.NoError(t, mock.ExpectationsWereMet())

		require.Len(t, events.events, 1)
		assert.Equal(t, notify.KindDefectReported, events.events[0].Kind)
		// the reporting analyst is excluded from the recipients
		require.Len(t, events.events[0].Recipients, 1)
		assert.Equal(t, "pedro@acme.com", events.events[0].Recipients[0].Email)
	})
}
