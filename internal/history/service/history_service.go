package service

import (
	"context"
	"database/sql"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/history/repository"
)

// HistoryService records audit rows. Record always takes the caller's
// transaction so an entity mutation and its trail commit or vanish
// together.
type HistoryService struct {
	repo *repository.HistoryRepository
}

func NewHistoryService(repo *repository.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Record appends one row per change inside tx, in the order detected.
func (s *HistoryService) Record(ctx context.Context, tx *sql.Tx, projectID, actorID int64, changes []domain.Change) error {
	txRepo := s.repo.WithTx(tx)
	for _, change := range changes {
		if err := txRepo.Append(ctx, projectID, actorID, change); err != nil {
			return err
		}
	}
	return nil
}

// ListByProject returns the trail for a project, newest first.
func (s *HistoryService) ListByProject(ctx context.Context, projectID int64) ([]domain.EntryWithActor, error) {
	return s.repo.ListByProject(ctx, projectID)
}
