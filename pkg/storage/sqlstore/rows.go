package sqlstore

import (
	"fmt"
	"time"

	"github.com/chris/project-billing/pkg/models"
)

type projectRow struct {
	ProjectKey     string `gorm:"primaryKey;size:255"`
	RepoFullName   string `gorm:"size:255;not null"`
	Provider       string `gorm:"size:64;not null"`
	Owner          string `gorm:"size:255"`
	ProjectManager string `gorm:"size:255"`
}

func (projectRow) TableName() string { return "projects" }

func (r projectRow) toModel() models.Project {
	return models.Project{RepoFullName: r.RepoFullName, Provider: r.Provider, Owner: r.Owner, ProjectManager: r.ProjectManager}
}

// contractColumns are the identity columns shared by every row that belongs to a contract.
type contractColumns struct {
	RepoFullName string `gorm:"size:255;not null"`
	Provider     string `gorm:"size:64;not null"`
	Username     string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null"`
}

func newContractColumns(id models.ContractID) contractColumns {
	return contractColumns{RepoFullName: id.RepoFullName, Provider: id.Provider, Username: id.ContributorUsername, Role: string(id.Role)}
}

func (c contractColumns) toModel() models.ContractID {
	return models.ContractID{RepoFullName: c.RepoFullName, Provider: c.Provider, ContributorUsername: c.Username, Role: models.Role(c.Role)}
}

type contractRow struct {
	ContractKey      string          `gorm:"primaryKey;size:600"`
	ProjectKey       string          `gorm:"size:255;index;not null"`
	Identity         contractColumns `gorm:"embedded"`
	HourlyRate       int64
	Value            int64
	Revenue          int64
	MarkedForRemoval *time.Time
	CreatedAt        time.Time
}

func (contractRow) TableName() string { return "contracts" }

func newContractRow(c models.Contract) contractRow {
	return contractRow{
		ContractKey:      c.ID.String(),
		ProjectKey:       c.ID.ProjectKey(),
		Identity:         newContractColumns(c.ID),
		HourlyRate:       int64(c.HourlyRate),
		Value:            int64(c.Value),
		Revenue:          int64(c.Revenue),
		MarkedForRemoval: c.MarkedForRemoval,
		CreatedAt:        c.CreatedAt,
	}
}

func (r contractRow) toModel() models.Contract {
	c := models.Contract{
		ID:         r.Identity.toModel(),
		HourlyRate: models.Money(r.HourlyRate),
		Value:      models.Money(r.Value),
		Revenue:    models.Money(r.Revenue),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.MarkedForRemoval != nil {
		at := r.MarkedForRemoval.UTC()
		c.MarkedForRemoval = &at
	}
	return c
}

// paymentColumns hold one payment. An empty Status means no payment.
type paymentColumns struct {
	TransactionID string `gorm:"size:255"`
	Status        string `gorm:"size:16"`
	FailReason    string
	PaidAt        time.Time
	Amount        int64
	WalletType    string `gorm:"size:16"`
}

func newPaymentColumns(p models.Payment) paymentColumns {
	return paymentColumns{
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		FailReason:    p.FailReason,
		PaidAt:        p.PaymentTime,
		Amount:        int64(p.Amount),
		WalletType:    string(p.WalletType),
	}
}

func (c paymentColumns) toModel() models.Payment {
	return models.Payment{
		TransactionID: c.TransactionID,
		Status:        models.PaymentStatus(c.Status),
		FailReason:    c.FailReason,
		PaymentTime:   c.PaidAt.UTC(),
		Amount:        models.Money(c.Amount),
		WalletType:    models.WalletType(c.WalletType),
	}
}

func (c paymentColumns) updates(prefix string) map[string]any {
	return map[string]any{
		prefix + "transaction_id": c.TransactionID,
		prefix + "status":         c.Status,
		prefix + "fail_reason":    c.FailReason,
		prefix + "paid_at":        c.PaidAt,
		prefix + "amount":         c.Amount,
		prefix + "wallet_type":    c.WalletType,
	}
}

type invoiceRow struct {
	ContractKey     string          `gorm:"primaryKey;size:600"`
	Number          int             `gorm:"primaryKey;autoIncrement:false"`
	Identity        contractColumns `gorm:"embedded"`
	Amount          int64
	TotalAmount     int64
	IsPaid          bool
	CreatedAt       time.Time
	Latest          paymentColumns `gorm:"embedded;embeddedPrefix:latest_"`
	PaymentLock     string         `gorm:"size:64;not null;default:''"`
	PaymentLockedAt *time.Time     `gorm:"index"`
}

func (invoiceRow) TableName() string { return "invoices" }

func newInvoiceRow(inv models.Invoice) invoiceRow {
	row := invoiceRow{
		ContractKey: inv.Contract.String(),
		Number:      inv.ID,
		Identity:    newContractColumns(inv.Contract),
		Amount:      int64(inv.Amount),
		TotalAmount: int64(inv.TotalAmount),
		IsPaid:      inv.IsPaid,
		CreatedAt:   inv.CreatedAt,
	}
	if inv.Latest != nil {
		row.Latest = newPaymentColumns(*inv.Latest)
	}
	return row
}

func (r invoiceRow) toModel() models.Invoice {
	inv := models.Invoice{
		ID:          r.Number,
		Contract:    r.Identity.toModel(),
		Amount:      models.Money(r.Amount),
		TotalAmount: models.Money(r.TotalAmount),
		IsPaid:      r.IsPaid,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.Latest.Status != "" {
		latest := r.Latest.toModel()
		inv.Latest = &latest
	}
	return inv
}

func (r invoiceRow) toLock() models.InvoiceLock {
	lock := models.InvoiceLock{Contract: r.Identity.toModel(), InvoiceID: r.Number, Token: r.PaymentLock}
	if r.PaymentLockedAt != nil {
		lock.LockedAt = r.PaymentLockedAt.UTC()
	}
	return lock
}

type billingColumns struct {
	Email     string `gorm:"size:255"`
	Company   string `gorm:"size:255"`
	Address   string
	City      string `gorm:"size:255"`
	Zipcode   string `gorm:"size:32"`
	Country   string `gorm:"size:64"`
	TaxID     string `gorm:"size:64"`
	IsCompany bool
}

type paymentMethodRow struct {
	ID         string `gorm:"primaryKey;size:255"`
	ProjectKey string `gorm:"size:255;index:idx_payment_methods_wallet"`
	WalletType string `gorm:"size:16;index:idx_payment_methods_wallet"`
	Active     bool
}

func (paymentMethodRow) TableName() string { return "payment_methods" }

type walletRow struct {
	ProjectKey     string             `gorm:"primaryKey;size:255"`
	WalletType     string             `gorm:"primaryKey;size:16"`
	Active         bool               `gorm:"not null;default:false"`
	Cash           int64
	Debt           int64
	BillingInfo    billingColumns     `gorm:"embedded;embeddedPrefix:billing_"`
	PaymentMethods []paymentMethodRow `gorm:"foreignKey:ProjectKey,WalletType;references:ProjectKey,WalletType"`
	CreatedAt      time.Time
}

func (walletRow) TableName() string { return "wallets" }

func newWalletRow(w models.Wallet) walletRow {
	methods := make([]paymentMethodRow, 0, len(w.PaymentMethods))
	for _, m := range w.PaymentMethods {
		methods = append(methods, paymentMethodRow{ID: m.ID, ProjectKey: w.ProjectKey, WalletType: string(w.Type), Active: m.Active})
	}
	return walletRow{
		ProjectKey:     w.ProjectKey,
		WalletType:     string(w.Type),
		Active:         w.Active,
		Cash:           int64(w.Cash),
		Debt:           int64(w.Debt),
		BillingInfo:    billingColumns(w.BillingInfo),
		PaymentMethods: methods,
		CreatedAt:      w.CreatedAt,
	}
}

func (r walletRow) toModel() models.Wallet {
	methods := make([]models.PaymentMethod, 0, len(r.PaymentMethods))
	for _, m := range r.PaymentMethods {
		methods = append(methods, models.PaymentMethod{ID: m.ID, Active: m.Active})
	}
	return models.Wallet{
		ProjectKey:     r.ProjectKey,
		Type:           models.WalletType(r.WalletType),
		Active:         r.Active,
		Cash:           models.Money(r.Cash),
		Debt:           models.Money(r.Debt),
		PaymentMethods: methods,
		BillingInfo:    models.BillingInfo(r.BillingInfo),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type paymentRecordRow struct {
	EntryID    string          `gorm:"primaryKey;size:255"`
	InvoiceKey string          `gorm:"size:620;index;not null"`
	Identity   contractColumns `gorm:"embedded"`
	InvoiceID  int
	Payment    paymentColumns `gorm:"embedded;embeddedPrefix:payment_"`
	RecordedAt time.Time
}

func (paymentRecordRow) TableName() string { return "payment_records" }

func ledgerKey(contract models.ContractID, invoiceID int) string {
	return fmt.Sprintf("%s#%d", contract, invoiceID)
}

func newPaymentRecordRow(r models.PaymentRecord) paymentRecordRow {
	return paymentRecordRow{
		EntryID:    r.EntryID,
		InvoiceKey: ledgerKey(r.Contract, r.InvoiceID),
		Identity:   newContractColumns(r.Contract),
		InvoiceID:  r.InvoiceID,
		Payment:    newPaymentColumns(r.Payment),
		RecordedAt: r.RecordedAt,
	}
}

func (r paymentRecordRow) toModel() models.PaymentRecord {
	return models.PaymentRecord{
		EntryID:    r.EntryID,
		Contract:   r.Identity.toModel(),
		InvoiceID:  r.InvoiceID,
		Payment:    r.Payment.toModel(),
		RecordedAt: r.RecordedAt.UTC(),
	}
}
