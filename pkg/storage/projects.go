package storage

import (
	"context"

	"github.com/chris/project-billing/pkg/models"
)

// ProjectReader resolves registered projects.
type ProjectReader interface {
	// GetProject returns the project of a repository, or ErrNotFound.
	GetProject(ctx context.Context, repoFullName, provider string) (*models.Project, error)
}

// ProjectRegistrar registers projects. Registering an existing project overwrites it.
type ProjectRegistrar interface {
	RegisterProject(ctx context.Context, project models.Project) error
}
