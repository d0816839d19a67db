package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	userrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	commentsdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/domain"
	commentsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/repository"
	historydomain "github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
	historyservice "github.com/ocastrobeltran/gestio-qa-backend/internal/history/service"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

// ProjectService owns the project write paths. Every mutation runs as one
// unit of work: aggregate write, child-collection replacement and audit
// rows commit together or not at all. Notifications go out after commit
// and never feed back into the result.
type ProjectService struct {
	db          *sql.DB
	unitTimeout time.Duration
	repo        *repository.ProjectRepository
	users       *userrepo.UserRepository
	comments    *commentsrepo.CommentRepository
	history     *historyservice.HistoryService
	publisher   notify.Publisher
}

func NewProjectService(
	db *sql.DB,
	unitTimeout time.Duration,
	repo *repository.ProjectRepository,
	users *userrepo.UserRepository,
	comments *commentsrepo.CommentRepository,
	history *historyservice.HistoryService,
	publisher notify.Publisher,
) *ProjectService {
	return &ProjectService{
		db:          db,
		unitTimeout: unitTimeout,
		repo:        repo,
		users:       users,
		comments:    comments,
		history:     history,
		publisher:   publisher,
	}
}

type CreateProjectInput struct {
	Title       string
	Initiative  string
	Client      string
	PM          string
	LeadDev     string
	Designer    string
	DesignURL   string
	TestURL     string
	QAAnalystID *int64
	Status      string
	Developers  []string
	Assets      []string
}

// ProjectDetail is the full read shape: aggregate, references, owned
// collections, comments and the audit trail.
type ProjectDetail struct {
	domain.ProjectWithRefs
	Comments []commentsdomain.CommentWithAuthor
	History  []historydomain.EntryWithActor
}

// List returns the projects the caller may see, narrowed by filters.
func (s *ProjectService) List(ctx context.Context, caller auth.Identity, filters domain.ListFilters) ([]domain.ProjectWithRefs, error) {
	scope := domain.ScopeFor(caller.ID, caller.Role)
	if scope.None() {
		return nil, domain.ErrViewForbidden
	}
	return s.repo.List(ctx, scope, filters)
}

// Get returns the full detail of one project inside the caller's scope.
func (s *ProjectService) Get(ctx context.Context, caller auth.Identity, id int64) (*ProjectDetail, error) {
	p, err := s.repo.GetWithRefs(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := domain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(&p.Project) {
		return nil, domain.ErrViewForbidden
	}

	comments, err := s.comments.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	trail, err := s.history.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProjectDetail{ProjectWithRefs: *p, Comments: comments, History: trail}, nil
}

// Create inserts the aggregate, its initial collections and the creation
// audit row atomically, then emits an assignment notification when an
// analyst was set.
func (s *ProjectService) Create(ctx context.Context, caller auth.Identity, input CreateProjectInput) (*domain.ProjectWithRefs, error) {
	status := input.Status
	if status == "" {
		status = domain.StatusAnalysis
	}

	creator := caller.ID
	project := &domain.Project{
		Title:       input.Title,
		Initiative:  input.Initiative,
		Client:      input.Client,
		PM:          input.PM,
		LeadDev:     input.LeadDev,
		Designer:    input.Designer,
		DesignURL:   input.DesignURL,
		TestURL:     input.TestURL,
		QAAnalystID: input.QAAnalystID,
		Status:      status,
		CreatedBy:   &creator,
	}

	var created *domain.Project
	err := postgres.RunAtomicTimeout(ctx, s.db, s.unitTimeout, func(tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		var err error
		created, err = txRepo.Insert(ctx, project)
		if err != nil {
			return err
		}

		if len(input.Developers) > 0 {
			if err := txRepo.ReplaceDevelopers(ctx, created.ID, input.Developers); err != nil {
				return err
			}
		}
		if len(input.Assets) > 0 {
			if err := txRepo.ReplaceAssets(ctx, created.ID, input.Assets); err != nil {
				return err
			}
		}

		return s.history.Record(ctx, tx, created.ID, caller.ID, []historydomain.Change{
			{Type: historydomain.ChangeProjectCreated, NewValue: created.Title},
		})
	})
	if err != nil {
		return nil, err
	}

	out, err := s.repo.GetWithRefs(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	if out.QAAnalyst != nil {
		s.emit(ctx, notify.Event{
			Kind:         notify.KindProjectAssigned,
			ProjectID:    out.ID,
			ProjectTitle: out.Title,
			Recipients:   []notify.Recipient{{Name: out.QAAnalyst.FullName, Email: out.QAAnalyst.Email}},
		})
	}
	return out, nil
}

// Update applies a partial update. Only fields present in the patch are
// touched; supplied collections are fully replaced; one audit row per
// detected change lands in the same unit. A patch equal to current state
// commits without producing history.
func (s *ProjectService) Update(ctx context.Context, caller auth.Identity, id int64, patch domain.Patch) (*domain.ProjectWithRefs, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := domain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(current) {
		return nil, domain.ErrMutateForbidden
	}

	changes := patch.Changes(current, s.nameResolver(ctx))
	analystChanged := patch.QAAnalystID != nil &&
		(current.QAAnalystID == nil || *patch.QAAnalystID != *current.QAAnalystID)

	err = postgres.RunAtomicTimeout(ctx, s.db, s.unitTimeout, func(tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		if err := txRepo.Update(ctx, id, patch); err != nil {
			return err
		}
		if patch.Developers != nil {
			if err := txRepo.ReplaceDevelopers(ctx, id, patch.Developers); err != nil {
				return err
			}
		}
		if patch.Assets != nil {
			if err := txRepo.ReplaceAssets(ctx, id, patch.Assets); err != nil {
				return err
			}
		}

		return s.history.Record(ctx, tx, id, caller.ID, changes)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.repo.GetWithRefs(ctx, id)
	if err != nil {
		return nil, err
	}

	if analystChanged && out.QAAnalyst != nil {
		s.emit(ctx, notify.Event{
			Kind:         notify.KindProjectAssigned,
			ProjectID:    out.ID,
			ProjectTitle: out.Title,
			Recipients:   []notify.Recipient{{Name: out.QAAnalyst.FullName, Email: out.QAAnalyst.Email}},
		})
	}
	return out, nil
}

// Delete removes the project and everything it owns. The audit trail is
// owned by the project, so it goes with the cascade.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// nameResolver looks display names up for the change detector. A lookup
// failure resolves to empty, which the detector turns into the
// unassigned sentinel.
func (s *ProjectService) nameResolver(ctx context.Context) func(int64) string {
	return func(id int64) string {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		return user.FullName
	}
}

func (s *ProjectService) emit(ctx context.Context, ev notify.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[notify] publish %s for project %d: %v", ev.Kind, ev.ProjectID, err)
	}
}
