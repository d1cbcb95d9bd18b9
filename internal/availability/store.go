package availability

import (
	"context"

	"github.com/google/uuid"
)

// Store is the availability component's public surface: structural
// validation on writes, plain reads otherwise.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) GetTemplate(ctx context.Context, providerID uuid.UUID) (Template, error) {
	return s.repo.Get(ctx, providerID)
}

// SetTemplate validates and persists a provider's weekly template. Invalid
// input is rejected with a single *ValidationError naming every violated
// rule, and nothing is written.
func (s *Store) SetTemplate(ctx context.Context, providerID uuid.UUID, entries []EntryInput) (Template, error) {
	tmpl, err := BuildTemplate(providerID, entries)
	if err != nil {
		return Template{}, err
	}
	return s.repo.Put(ctx, tmpl)
}
