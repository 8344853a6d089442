// Package memory provides an in-process implementation of the storage interfaces.
// It backs local development and the unit tests of the layers above storage.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// Store keeps every record in maps guarded by a single mutex.
type Store struct {
	mu        sync.Mutex
	projects  map[string]models.Project
	contracts map[string]models.Contract
	invoices  map[string]map[int]*invoiceRecord
	wallets   map[string]map[models.WalletType]models.Wallet
	payments  map[string][]models.PaymentRecord
	entries   map[string]struct{}

	// Now returns the current time. It defaults to time.Now in UTC.
	Now func() time.Time
}

type invoiceRecord struct {
	invoice  models.Invoice
	lock     string
	lockedAt time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		projects:  make(map[string]models.Project),
		contracts: make(map[string]models.Contract),
		invoices:  make(map[string]map[int]*invoiceRecord),
		wallets:   make(map[string]map[models.WalletType]models.Wallet),
		payments:  make(map[string][]models.PaymentRecord),
		entries:   make(map[string]struct{}),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// AddProject registers a project.
func (s *Store) AddProject(project models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.Key()] = project
}

func (s *Store) RegisterProject(_ context.Context, project models.Project) error {
	s.AddProject(project)
	return nil
}

// AddInvoice stores an invoice as is, replacing any invoice with the same number.
func (s *Store) AddInvoice(invoice models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := invoice.Contract.String()
	if s.invoices[key] == nil {
		s.invoices[key] = make(map[int]*invoiceRecord)
	}
	s.invoices[key][invoice.ID] = &invoiceRecord{invoice: copyInvoice(invoice)}
}

// MarkForRemoval flags a stored contract for deletion.
func (s *Store) MarkForRemoval(id models.ContractID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[id.String()]
	if !ok {
		return fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}
	contract.MarkedForRemoval = &at
	s.contracts[id.String()] = contract
	return nil
}

func (s *Store) GetProject(_ context.Context, repoFullName, provider string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[models.Project{RepoFullName: repoFullName, Provider: provider}.Key()]
	if !ok {
		return nil, fmt.Errorf("project %s at %s: %w", repoFullName, provider, storage.ErrNotFound)
	}
	return &project, nil
}

func (s *Store) ListContracts(_ context.Context, project models.Project) ([]models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contracts := []models.Contract{}
	for _, c := range s.contracts {
		if c.ID.ProjectKey() == project.Key() {
			contracts = append(contracts, copyContract(c))
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID.String() < contracts[j].ID.String() })
	return contracts, nil
}

func (s *Store) GetContract(_ context.Context, id models.ContractID) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[id.String()]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}
	contract = copyContract(contract)
	return &contract, nil
}

func (s *Store) CreateContract(_ context.Context, contract *models.Contract) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contract.ID.String()]; exists {
		return nil, fmt.Errorf("contract %s: %w", contract.ID, storage.ErrContractAlreadyExists)
	}
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = s.Now()
	}
	s.contracts[contract.ID.String()] = copyContract(*contract)
	created := copyContract(*contract)
	return &created, nil
}

func (s *Store) RestoreContract(_ context.Context, id models.ContractID) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[id.String()]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}
	contract.MarkedForRemoval = nil
	s.contracts[id.String()] = contract
	return &contract, nil
}

func (s *Store) GetInvoice(_ context.Context, contract models.ContractID, invoiceID int) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.invoiceLocked(contract, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice := copyInvoice(rec.invoice)
	return &invoice, nil
}

func (s *Store) ListInvoices(_ context.Context, contract models.ContractID) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoices := []models.Invoice{}
	for _, rec := range s.invoices[contract.String()] {
		invoices = append(invoices, copyInvoice(rec.invoice))
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	return invoices, nil
}

func (s *Store) ActiveInvoice(_ context.Context, contract models.ContractID) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := contract.String()
	var active *models.Invoice
	maxID := 0
	for id, rec := range s.invoices[key] {
		if id > maxID {
			maxID = id
		}
		if !rec.invoice.IsPaid && (active == nil || id > active.ID) {
			inv := rec.invoice
			active = &inv
		}
	}
	if active != nil {
		invoice := copyInvoice(*active)
		return &invoice, nil
	}

	if s.invoices[key] == nil {
		s.invoices[key] = make(map[int]*invoiceRecord)
	}
	invoice := models.Invoice{ID: maxID + 1, Contract: contract, CreatedAt: s.Now()}
	s.invoices[key][invoice.ID] = &invoiceRecord{invoice: invoice}
	return &invoice, nil
}

func (s *Store) LockInvoice(_ context.Context, contract models.ContractID, invoiceID int, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.invoiceLocked(contract, invoiceID)
	if err != nil {
		return err
	}
	switch {
	case rec.invoice.IsPaid:
		return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrInvoiceAlreadyPaid)
	case rec.lock != "":
		return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrPaymentInProgress)
	}
	rec.lock = token
	rec.lockedAt = s.Now()
	return nil
}

func (s *Store) UnlockInvoice(_ context.Context, contract models.ContractID, invoiceID int, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.invoiceLocked(contract, invoiceID)
	if err != nil {
		return err
	}
	if rec.lock != token {
		return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
	}
	rec.lock = ""
	rec.lockedAt = time.Time{}
	return nil
}

func (s *Store) GetStaleLocks(_ context.Context, maxAge time.Duration) ([]models.InvoiceLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.Now().Add(-maxAge)
	locks := []models.InvoiceLock{}
	for _, byID := range s.invoices {
		for _, rec := range byID {
			if rec.lock != "" && rec.lockedAt.Before(cutoff) {
				locks = append(locks, models.InvoiceLock{
					Contract:  rec.invoice.Contract,
					InvoiceID: rec.invoice.ID,
					Token:     rec.lock,
					LockedAt:  rec.lockedAt,
				})
			}
		}
	}
	return locks, nil
}

func (s *Store) RegisterPayment(_ context.Context, contract models.ContractID, invoiceID int, token string, wallet models.Wallet, payment models.Payment) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.invoiceLocked(contract, invoiceID)
	if err != nil {
		return nil, err
	}
	if rec.lock != token {
		return nil, fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
	}

	if payment.Successful() {
		stored, ok := s.wallets[wallet.ProjectKey][wallet.Type]
		if !ok {
			return nil, fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrNotFound)
		}
		stored.Debt += rec.invoice.TotalAmount
		s.wallets[wallet.ProjectKey][wallet.Type] = stored
		rec.invoice.IsPaid = true
	}

	latest := payment
	rec.invoice.Latest = &latest
	rec.lock = ""
	rec.lockedAt = time.Time{}

	invoice := copyInvoice(rec.invoice)
	return &invoice, nil
}

func (s *Store) ListWallets(_ context.Context, project models.Project) ([]models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallets := []models.Wallet{}
	for _, w := range s.wallets[project.Key()] {
		wallets = append(wallets, copyWallet(w))
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Type < wallets[j].Type })
	return wallets, nil
}

func (s *Store) ActiveWallet(_ context.Context, project models.Project) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets[project.Key()] {
		if w.Active {
			wallet := copyWallet(w)
			return &wallet, nil
		}
	}
	return nil, fmt.Errorf("active wallet of %s: %w", project.Key(), storage.ErrNotFound)
}

func (s *Store) CreateWallet(_ context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[wallet.ProjectKey][wallet.Type]; exists {
		return nil, fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrWalletAlreadyExists)
	}
	if s.wallets[wallet.ProjectKey] == nil {
		s.wallets[wallet.ProjectKey] = make(map[models.WalletType]models.Wallet)
	}
	wallet.Active = false
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = s.Now()
	}
	s.wallets[wallet.ProjectKey][wallet.Type] = copyWallet(*wallet)
	created := copyWallet(*wallet)
	return &created, nil
}

func (s *Store) ActivateWallet(_ context.Context, project models.Project, walletType models.WalletType) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType := s.wallets[project.Key()]
	if _, ok := byType[walletType]; !ok {
		return nil, fmt.Errorf("wallet %s of %s: %w", walletType, project.Key(), storage.ErrNotFound)
	}
	for t, w := range byType {
		w.Active = t == walletType
		byType[t] = w
	}
	activated := copyWallet(byType[walletType])
	return &activated, nil
}

func (s *Store) UpdateCash(_ context.Context, project models.Project, walletType models.WalletType, cash models.Money) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[project.Key()][walletType]
	if !ok {
		return nil, fmt.Errorf("wallet %s of %s: %w", walletType, project.Key(), storage.ErrNotFound)
	}
	w.Cash = cash
	s.wallets[project.Key()][walletType] = w
	updated := copyWallet(w)
	return &updated, nil
}

func (s *Store) AppendPayment(_ context.Context, record models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.entries[record.EntryID]; seen {
		return nil
	}
	s.entries[record.EntryID] = struct{}{}
	key := ledgerKey(record.Contract, record.InvoiceID)
	s.payments[key] = append(s.payments[key], record)
	return nil
}

func (s *Store) ListPayments(_ context.Context, contract models.ContractID, invoiceID int) ([]models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]models.PaymentRecord{}, s.payments[ledgerKey(contract, invoiceID)]...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Payment.PaymentTime.Before(records[j].Payment.PaymentTime)
	})
	return records, nil
}

func (s *Store) invoiceLocked(contract models.ContractID, invoiceID int) (*invoiceRecord, error) {
	rec, ok := s.invoices[contract.String()][invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice #%d of %s: %w", invoiceID, contract, storage.ErrNotFound)
	}
	return rec, nil
}

func ledgerKey(contract models.ContractID, invoiceID int) string {
	return fmt.Sprintf("%s#%d", contract, invoiceID)
}

func copyContract(c models.Contract) models.Contract {
	if c.MarkedForRemoval != nil {
		at := *c.MarkedForRemoval
		c.MarkedForRemoval = &at
	}
	return c
}

func copyInvoice(i models.Invoice) models.Invoice {
	if i.Latest != nil {
		latest := *i.Latest
		i.Latest = &latest
	}
	return i
}

func copyWallet(w models.Wallet) models.Wallet {
	w.PaymentMethods = append([]models.PaymentMethod{}, w.PaymentMethods...)
	return w
}
