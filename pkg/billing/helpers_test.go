package billing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage/memory"
)

const provider = "github"

var (
	project = models.Project{RepoFullName: "john/test", Provider: provider, Owner: "john", ProjectManager: "pm"}
	devID   = models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: provider, Role: models.RoleDeveloper}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newStore returns a memory store with the john/test project registered.
func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	s.AddProject(project)
	return s
}
