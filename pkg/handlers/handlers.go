package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/handlers/contracts"
	"github.com/chris/project-billing/pkg/handlers/invoices"
	"github.com/chris/project-billing/pkg/handlers/wallets"
)

// ApiHandler implements the server interface by composing the per-resource handlers.
type ApiHandler struct {
	*contracts.ContractsHandler
	*invoices.InvoicesHandler
	*wallets.WalletsHandler
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(c *contracts.ContractsHandler, i *invoices.InvoicesHandler, w *wallets.WalletsHandler) *ApiHandler {
	return &ApiHandler{
		ContractsHandler: c,
		InvoicesHandler:  i,
		WalletsHandler:   w,
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// GetHealth reports that the service is up.
func (h *ApiHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
