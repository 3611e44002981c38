package repositories

import (
	"context"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// CardRepositoryFacade manages payment cards and their account overrides.
type CardRepositoryFacade interface {
	ListCardsByCompany(ctx context.Context, companyID string) ([]domain.Card, error)
	FindCardByID(ctx context.Context, cardID string) (*domain.Card, error)

	// CreateCard registers a first-seen token during API import.
	CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error)

	ListAccountMappingsByCompany(ctx context.Context, companyID string) ([]domain.AccountMapping, error)

	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)
}
