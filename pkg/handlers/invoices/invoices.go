package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/mapping"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// InvoiceLister lists the invoices of a contract.
type InvoiceLister interface {
	ListInvoices(ctx context.Context, owner, name, username string, role models.Role) ([]models.Invoice, error)
}

// PaymentService pays invoices and reads their payment history.
type PaymentService interface {
	PayInvoice(ctx context.Context, owner, name, username string, role models.Role, invoiceID int) (*billing.PaymentResult, error)
	ListPayments(ctx context.Context, owner, name, username string, role models.Role, invoiceID int) ([]models.PaymentRecord, error)
}

// InvoicesHandler holds the dependencies for invoice-related handlers.
type InvoicesHandler struct {
	Invoices InvoiceLister
	Payments PaymentService
	Logger   *slog.Logger
}

// NewInvoicesHandler creates a new InvoicesHandler.
func NewInvoicesHandler(invoices InvoiceLister, payments PaymentService, logger *slog.Logger) *InvoicesHandler {
	return &InvoicesHandler{Invoices: invoices, Payments: payments, Logger: logger}
}

// ListInvoices handles the logic for retrieving the invoices of a contract.
func (h *InvoicesHandler) ListInvoices(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params api.ContractParams) {
	domainInvoices, err := h.Invoices.ListInvoices(r.Context(), owner, name, username, models.Role(strings.ToUpper(params.Role)))
	if err != nil {
		h.Logger.Error("failed to list invoices", slog.Any("error", err))
		http.Error(w, "Failed to retrieve invoices", http.StatusInternalServerError)
		return
	}

	apiInvoices := make([]*api.Invoice, len(domainInvoices))
	for i := range domainInvoices {
		apiInvoices[i] = mapping.ToApiInvoice(&domainInvoices[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiInvoices); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// PayInvoice handles the logic for paying an invoice from the project's active wallet.
// Declined payments are reported in the body with status 200.
func (h *InvoicesHandler) PayInvoice(w http.ResponseWriter, r *http.Request, owner string, name string, username string, invoiceId int, params api.ContractParams) {
	result, err := h.Payments.PayInvoice(r.Context(), owner, name, username, models.Role(strings.ToUpper(params.Role)), invoiceId)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, storage.ErrPaymentInProgress):
			http.Error(w, "Payment already in progress", http.StatusConflict)
		default:
			h.Logger.Error("failed to pay invoice", slog.Int("invoice_id", invoiceId), slog.Any("error", err))
			http.Error(w, "Failed to pay invoice", http.StatusInternalServerError)
		}
		return
	}

	apiResult := mapping.ToApiPaymentResult(result)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiResult); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListPayments handles the logic for retrieving the payment history of an invoice.
func (h *InvoicesHandler) ListPayments(w http.ResponseWriter, r *http.Request, owner string, name string, username string, invoiceId int, params api.ContractParams) {
	records, err := h.Payments.ListPayments(r.Context(), owner, name, username, models.Role(strings.ToUpper(params.Role)), invoiceId)
	if err != nil {
		h.Logger.Error("failed to list payments", slog.Int("invoice_id", invoiceId), slog.Any("error", err))
		http.Error(w, "Failed to retrieve payments", http.StatusInternalServerError)
		return
	}

	apiRecords := make([]*api.PaymentRecord, len(records))
	for i := range records {
		apiRecords[i] = mapping.ToApiPaymentRecord(&records[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiRecords); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
