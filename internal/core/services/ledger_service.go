package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates the general-ledger collaborator backed by local
// storage.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

// PostEntry persists and posts a balanced ledger entry, assigning entry and
// line identifiers.
func (s *ledgerService) PostEntry(ctx context.Context, companyID string, entry domain.LedgerEntry) (*domain.PostedEntry, error) {
	if len(entry.Lines) == 0 {
		return nil, apperrors.Validation("a ledger entry needs at least one line")
	}
	if !entry.Balanced() {
		return nil, apperrors.Validation("ledger entry '%s' does not balance", entry.Reference)
	}

	posted := domain.PostedEntry{
		EntryID:   uuid.New().String(),
		Reference: entry.Reference,
		Lines:     make([]domain.EntryLine, len(entry.Lines)),
	}
	for i, line := range entry.Lines {
		line.LineID = uuid.New().String()
		posted.Lines[i] = line
	}

	if err := s.ledgerRepo.SaveEntry(ctx, posted, entry.JournalID, companyID); err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Debug("ledger entry posted",
		"entry_id", posted.EntryID, "reference", posted.Reference, "lines", len(posted.Lines))
	return &posted, nil
}

// Reconcile links ledger lines sharing an account and returns the
// reconciliation reference.
func (s *ledgerService) Reconcile(ctx context.Context, accountID string, lineIDs []string) (string, error) {
	if len(lineIDs) < 2 {
		return "", apperrors.Validation("reconciliation needs at least two ledger lines, got %d", len(lineIDs))
	}
	return s.ledgerRepo.SaveReconciliation(ctx, accountID, lineIDs)
}
