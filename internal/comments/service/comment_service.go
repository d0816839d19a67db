package service

import (
	"context"
	"log"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	userrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/comments/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/comments/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
	projectsdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	projectsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/repository"
)

// CommentService appends comments to projects inside the caller's scope
// and emits a notification for the interested parties afterwards.
type CommentService struct {
	repo      *repository.CommentRepository
	projects  *projectsrepo.ProjectRepository
	users     *userrepo.UserRepository
	publisher notify.Publisher
}

func NewCommentService(
	repo *repository.CommentRepository,
	projects *projectsrepo.ProjectRepository,
	users *userrepo.UserRepository,
	publisher notify.Publisher,
) *CommentService {
	return &CommentService{repo: repo, projects: projects, users: users, publisher: publisher}
}

// Add appends a comment and notifies the project creator and assigned
// analyst, skipping the commenter themselves. The notification runs
// after the write and its failure never reaches the caller.
func (s *CommentService) Add(ctx context.Context, caller auth.Identity, projectID int64, text string) (*domain.Comment, error) {
	project, err := s.projects.GetWithRefs(ctx, projectID)
	if err != nil {
		return nil, err
	}

	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(&project.Project) {
		return nil, projectsdomain.ErrViewForbidden
	}

	comment, err := s.repo.Insert(ctx, projectID, caller.ID, text)
	if err != nil {
		return nil, err
	}

	s.notifyInterested(ctx, caller, project)
	return comment, nil
}

// ListByProject returns the comments of a project the caller may see.
func (s *CommentService) ListByProject(ctx context.Context, caller auth.Identity, projectID int64) ([]domain.CommentWithAuthor, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	scope := projectsdomain.ScopeFor(caller.ID, caller.Role)
	if !scope.Allows(project) {
		return nil, projectsdomain.ErrViewForbidden
	}

	return s.repo.ListByProject(ctx, projectID)
}

func (s *CommentService) notifyInterested(ctx context.Context, caller auth.Identity, project *projectsdomain.ProjectWithRefs) {
	if s.publisher == nil {
		return
	}

	actor := ""
	if user, err := s.users.GetByID(ctx, caller.ID); err == nil {
		actor = user.FullName
	}

	recipients := make([]notify.Recipient, 0, 2)
	if project.Creator != nil && project.Creator.ID != caller.ID {
		recipients = append(recipients, notify.Recipient{Name: project.Creator.FullName, Email: project.Creator.Email})
	}
	if project.QAAnalyst != nil && project.QAAnalyst.ID != caller.ID {
		recipients = append(recipients, notify.Recipient{Name: project.QAAnalyst.FullName, Email: project.QAAnalyst.Email})
	}
	if len(recipients) == 0 {
		return
	}

	ev := notify.Event{
		Kind:         notify.KindCommentAdded,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Actor:        actor,
		Recipients:   recipients,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[notify] publish %s for project %d: %v", ev.Kind, ev.ProjectID, err)
	}
}
