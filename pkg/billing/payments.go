package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/project-billing/pkg/events"
	"github.com/chris/project-billing/pkg/gateway"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/google/uuid"
)

// PaymentsStore is the data access needed by PaymentOrchestrator.
type PaymentsStore interface {
	storage.ProjectReader
	storage.ContractReader
	storage.InvoiceStore
	storage.WalletReader
	storage.LedgerReader
}

// PaymentResult is the outcome of a PayInvoice call.
type PaymentResult struct {
	// Paid is the ID of the invoice the call was made for.
	Paid int
	// Payment is the attempt made by this call, nil when the invoice was already paid.
	Payment *models.Payment
	// Active is the contract's current unpaid invoice.
	Active models.Invoice
}

// DefaultGatewayTimeout bounds a charge when no other timeout is configured.
const DefaultGatewayTimeout = time.Minute

// PaymentOrchestrator pays contract invoices from the project's active wallet.
type PaymentOrchestrator struct {
	Store     PaymentsStore
	Gateway   gateway.Gateway
	Publisher events.Publisher
	Logger    *slog.Logger
	// GatewayTimeout bounds each charge. Keep it below the stale lock threshold
	// used by LockReconciler, or a slow charge can lose its claim mid-flight.
	GatewayTimeout time.Duration
	projects       projectResolver
}

// NewPaymentOrchestrator creates a PaymentOrchestrator. A nil publisher discards events.
func NewPaymentOrchestrator(store PaymentsStore, gw gateway.Gateway, publisher events.Publisher, provider string, logger *slog.Logger) *PaymentOrchestrator {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &PaymentOrchestrator{
		Store:          store,
		Gateway:        gw,
		Publisher:      publisher,
		Logger:         logger,
		GatewayTimeout: DefaultGatewayTimeout,
		projects:       projectResolver{projects: store, provider: provider},
	}
}

// PayInvoice pays an invoice of a contract. A paid invoice is never charged again, and
// concurrent calls for the same invoice are rejected with storage.ErrPaymentInProgress.
// Declined and failed attempts are recorded on the invoice and returned, not raised.
func (o *PaymentOrchestrator) PayInvoice(ctx context.Context, owner, name, username string, role models.Role, invoiceID int) (*PaymentResult, error) {
	project, contract, err := o.lookup(ctx, owner, name, username, role)
	if err != nil {
		return nil, err
	}

	// 1. Resolve the invoice and short-circuit if it is already settled.
	invoice, err := o.Store.GetInvoice(ctx, contract.ID, invoiceID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice #%d: %w", invoiceID, err)
	}
	if invoice.IsPaid {
		return o.alreadyPaid(ctx, contract.ID, invoice.ID)
	}

	// 2. Claim the invoice so that only one payment is in flight.
	token := uuid.NewString()
	if err := o.Store.LockInvoice(ctx, contract.ID, invoice.ID, token); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvoiceAlreadyPaid):
			return o.alreadyPaid(ctx, contract.ID, invoice.ID)
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrInvoiceNotFound
		case errors.Is(err, storage.ErrPaymentInProgress):
			return nil, fmt.Errorf("invoice #%d of %s: %w", invoice.ID, contract.ID, err)
		}
		return nil, fmt.Errorf("failed to lock invoice #%d: %w", invoice.ID, err)
	}

	// 3. Charge the active wallet.
	wallet, err := o.Store.ActiveWallet(ctx, *project)
	if err != nil {
		o.unlock(ctx, contract.ID, invoice.ID, token)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get active wallet: %w", err)
	}
	payment := o.dispatch(ctx, *wallet, *invoice)

	// 4. Record the outcome and release the claim in one step.
	paid, err := o.Store.RegisterPayment(ctx, contract.ID, invoice.ID, token, *wallet, payment)
	if err != nil {
		o.Logger.Error("CRITICAL: payment dispatched but not registered",
			slog.String("contract_id", contract.ID.String()),
			slog.Int("invoice_id", invoice.ID),
			slog.String("transaction_id", payment.TransactionID),
			slog.String("status", string(payment.Status)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("invoice #%d, transaction %q: %w: %v", invoice.ID, payment.TransactionID, ErrPaymentNotRegistered, err)
	}

	o.Logger.Info("invoice payment registered",
		slog.String("contract_id", contract.ID.String()),
		slog.Int("invoice_id", paid.ID),
		slog.String("status", string(payment.Status)),
		slog.String("transaction_id", payment.TransactionID),
	)
	o.publish(ctx, contract.ID, paid.ID, payment)

	active, err := o.Store.ActiveInvoice(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active invoice: %w", err)
	}
	return &PaymentResult{Paid: paid.ID, Payment: &payment, Active: *active}, nil
}

// ListPayments returns the recorded attempts for an invoice, oldest first.
// An unknown project, contract or invoice has no payments.
func (o *PaymentOrchestrator) ListPayments(ctx context.Context, owner, name, username string, role models.Role, invoiceID int) ([]models.PaymentRecord, error) {
	_, contract, err := o.lookup(ctx, owner, name, username, role)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.PaymentRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := o.Store.ListPayments(ctx, contract.ID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments of invoice #%d: %w", invoiceID, err)
	}
	if records == nil {
		records = []models.PaymentRecord{}
	}
	return records, nil
}

func (o *PaymentOrchestrator) lookup(ctx context.Context, owner, name, username string, role models.Role) (*models.Project, *models.Contract, error) {
	project, err := o.projects.resolve(ctx, owner, name)
	if err != nil {
		return nil, nil, err
	}
	contract, err := o.Store.GetContract(ctx, contractID(*project, username, role))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrContractNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return project, contract, nil
}

func (o *PaymentOrchestrator) alreadyPaid(ctx context.Context, contract models.ContractID, invoiceID int) (*PaymentResult, error) {
	active, err := o.Store.ActiveInvoice(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("failed to get active invoice: %w", err)
	}
	return &PaymentResult{Paid: invoiceID, Active: *active}, nil
}

// dispatch never fails: transport errors become ERROR payments so that the attempt is recorded.
func (o *PaymentOrchestrator) dispatch(ctx context.Context, wallet models.Wallet, invoice models.Invoice) models.Payment {
	if o.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.GatewayTimeout)
		defer cancel()
	}
	payment, err := o.Gateway.Pay(ctx, wallet, invoice)
	if err == nil && payment != nil {
		return *payment
	}
	if err == nil {
		err = errors.New("gateway returned no payment")
	}
	o.Logger.Warn("payment gateway error",
		slog.String("wallet_type", string(wallet.Type)),
		slog.Int("invoice_id", invoice.ID),
		slog.Any("error", err),
	)
	return models.Payment{
		Status:      models.PaymentError,
		FailReason:  err.Error(),
		PaymentTime: time.Now().UTC(),
		Amount:      invoice.TotalAmount,
		WalletType:  wallet.Type,
	}
}

func (o *PaymentOrchestrator) unlock(ctx context.Context, contract models.ContractID, invoiceID int, token string) {
	if err := o.Store.UnlockInvoice(ctx, contract, invoiceID, token); err != nil {
		o.Logger.Warn("failed to release invoice lock",
			slog.String("contract_id", contract.String()),
			slog.Int("invoice_id", invoiceID),
			slog.Any("error", err),
		)
	}
}

func (o *PaymentOrchestrator) publish(ctx context.Context, contract models.ContractID, invoiceID int, payment models.Payment) {
	event := models.PaymentEvent{
		ID:         uuid.NewString(),
		Contract:   contract,
		InvoiceID:  invoiceID,
		Payment:    payment,
		OccurredAt: time.Now().UTC(),
	}
	if err := o.Publisher.Publish(ctx, event); err != nil {
		o.Logger.Error("failed to publish payment event",
			slog.String("event_id", event.ID),
			slog.String("contract_id", contract.String()),
			slog.Int("invoice_id", invoiceID),
			slog.Any("error", err),
		)
	}
}
