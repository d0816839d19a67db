package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	userrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/repository"
	historydomain "github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
	historyservice "github.com/ocastrobeltran/gestio-qa-backend/internal/history/service"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
	projectsdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	projectsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

// DefectService owns defect reads and writes. Access control rides on
// the parent project's scope: whoever may see the project may see its
// defects, and whoever may mutate it may report against it. Writes that
// matter to the trail run inside one unit of work with their audit rows.
type DefectService struct {
	db          *sql.DB
	unitTimeout time.Duration
	repo        *repository.DefectRepository
	projects    *projectsrepo.ProjectRepository
	users       *userrepo.UserRepository
	history     *historyservice.HistoryService
	publisher   notify.Publisher
}

func NewDefectService(
	db *sql.DB,
	unitTimeout time.Duration,
	repo *repository.DefectRepository,
	projects *projectsrepo.ProjectRepository,
	users *userrepo.UserRepository,
	history *historyservice.HistoryService,
	publisher notify.Publisher,
) *DefectService {
	return &DefectService{
		db:          db,
		unitTimeout: unitTimeout,
		repo:        repo,
		projects:    projects,
		users:       users,
		history:     history,
		publisher:   publisher,
	}
}

type CreateDefectInput struct {
	Title       string
	Description string
	Severity    string
	AssignedTo  *int64
}

// ListByProject returns a project's defects when the caller may see the
// project.
func (s *DefectService) ListByProject(ctx context.Context, caller auth.Identity, projectID int64) ([]domain.DefectWithRefs, error) {
	if _, err := s.visibleProject(ctx, caller, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

// Get returns one defect; visibility follows the parent project.
func (s *DefectService) Get(ctx context.Context, caller auth.Identity, id int64) (*domain.DefectWithRefs, error) {
	d, err := s.repo.GetWithRefs(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleProject(ctx, caller, d.ProjectID); err != nil {
		return nil, err
	}
	return d, nil
}

// Create reports a defect against a project the caller may mutate. The
// insert and its "Defecto reportado" audit row commit together; the
// reported notification goes out after commit.
func (s *DefectService) Create(ctx context.Context, caller auth.Identity, projectID int64, input CreateDefectInput) (*domain.DefectWithRefs, error) {
	project, err := s.projects.GetWithRefs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(&project.Project) {
		return nil, projectsdomain.ErrMutateForbidden
	}

	reporter := caller.ID
	defect := &domain.Defect{
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		Severity:    input.Severity,
		Status:      domain.StatusOpen,
		ReportedBy:  &reporter,
		AssignedTo:  input.AssignedTo,
	}

	var created *domain.Defect
	err = postgres.RunAtomicTimeout(ctx, s.db, s.unitTimeout, func(tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		var err error
		created, err = txRepo.Insert(ctx, defect)
		if err != nil {
			return err
		}

		return s.history.Record(ctx, tx, projectID, caller.ID, []historydomain.Change{
			{
				Type:     historydomain.ChangeDefectReported,
				NewValue: fmt.Sprintf("%s: %s", created.Severity, created.Title),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	out, err := s.repo.GetWithRefs(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	s.notifyReported(ctx, caller, project, out)
	return out, nil
}

// Update applies a partial update inside the project's mutation scope.
// A status change lands one audit row; the closed stamp is set on the
// first transition into Cerrado and kept forever after.
func (s *DefectService) Update(ctx context.Context, caller auth.Identity, id int64, patch domain.Patch) (*domain.DefectWithRefs, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, current.ProjectID)
	if err != nil {
		return nil, err
	}
	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(project) {
		return nil, projectsdomain.ErrMutateForbidden
	}

	var changes []historydomain.Change
	var closedAt *time.Time
	if patch.Status != nil && *patch.Status != current.Status {
		changes = append(changes, historydomain.Change{
			Type:     historydomain.ChangeDefectStatus,
			OldValue: fmt.Sprintf("%s: %s", current.Title, current.Status),
			NewValue: fmt.Sprintf("%s: %s", current.Title, *patch.Status),
		})
		current.ApplyStatus(*patch.Status, time.Now())
		closedAt = current.ClosedAt
	}

	err = postgres.RunAtomicTimeout(ctx, s.db, s.unitTimeout, func(tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Update(ctx, id, patch, closedAt); err != nil {
			return err
		}
		return s.history.Record(ctx, tx, current.ProjectID, caller.ID, changes)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetWithRefs(ctx, id)
}

// Delete removes a defect and records the removal on the parent's trail
// in the same unit.
func (s *DefectService) Delete(ctx context.Context, caller auth.Identity, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	project, err := s.projects.Get(ctx, current.ProjectID)
	if err != nil {
		return err
	}
	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(project) {
		return projectsdomain.ErrMutateForbidden
	}

	return postgres.RunAtomicTimeout(ctx, s.db, s.unitTimeout, func(tx *sql.Tx) error {
		ok, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return s.history.Record(ctx, tx, current.ProjectID, caller.ID, []historydomain.Change{
			{Type: historydomain.ChangeDefectDeleted, OldValue: current.Title},
		})
	})
}

// visibleProject loads the project and enforces the caller's view scope.
func (s *DefectService) visibleProject(ctx context.Context, caller auth.Identity, projectID int64) (*projectsdomain.Project, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(project) {
		return nil, projectsdomain.ErrViewForbidden
	}
	return project, nil
}

// notifyReported tells the project creator and assigned analyst about a
// new defect, skipping whoever reported it.
func (s *DefectService) notifyReported(ctx context.Context, caller auth.Identity, project *projectsdomain.ProjectWithRefs, defect *domain.DefectWithRefs) {
	if s.publisher == nil {
		return
	}

	actor := ""
	if user, err := s.users.GetByID(ctx, caller.ID); err == nil {
		actor = user.FullName
	}

	var recipients []notify.Recipient
	seen := map[string]bool{}
	add := func(name, email string, userID int64) {
		if email == "" || userID == caller.ID || seen[email] {
			return
		}
		seen[email] = true
		recipients = append(recipients, notify.Recipient{Name: name, Email: email})
	}
	if project.Creator != nil {
		add(project.Creator.FullName, project.Creator.Email, project.Creator.ID)
	}
	if project.QAAnalyst != nil {
		add(project.QAAnalyst.FullName, project.QAAnalyst.Email, project.QAAnalyst.ID)
	}
	if len(recipients) == 0 {
		return
	}

	ev := notify.Event{
		Kind:         notify.KindDefectReported,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Actor:        actor,
		Detail:       fmt.Sprintf("%s: %s", defect.Severity, defect.Title),
		Recipients:   recipients,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[notify] publish %s for project %d: %v", ev.Kind, ev.ProjectID, err)
	}
}
