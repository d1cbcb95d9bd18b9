package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrTemplateNotFound = errors.New("availability template not found")

// Repository persists weekly availability templates.
type Repository interface {
	Get(ctx context.Context, providerID uuid.UUID) (Template, error)
	Put(ctx context.Context, tmpl Template) (Template, error)
}
