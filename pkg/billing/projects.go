package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// projectResolver looks up the project behind an owner/name pair of the configured provider.
type projectResolver struct {
	projects storage.ProjectReader
	provider string
}

func (r projectResolver) resolve(ctx context.Context, owner, name string) (*models.Project, error) {
	repo := owner + "/" + name
	project, err := r.projects.GetProject(ctx, repo, r.provider)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", repo, err)
	}
	return project, nil
}

func contractID(project models.Project, username string, role models.Role) models.ContractID {
	return models.ContractID{
		RepoFullName:        project.RepoFullName,
		ContributorUsername: username,
		Provider:            project.Provider,
		Role:                role,
	}
}
