package dynamodb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
)

const (
	// staleLockGSI is a sparse index holding only locked invoices.
	staleLockGSI = "lock_state-payment_locked_at-index"
	lockedState  = "LOCKED"
)

type projectItem struct {
	ProjectID      string `dynamodbav:"project_id"`
	RepoFullName   string `dynamodbav:"repo_full_name"`
	Provider       string `dynamodbav:"provider"`
	Owner          string `dynamodbav:"owner"`
	ProjectManager string `dynamodbav:"project_manager"`
}

func (i projectItem) toModel() models.Project {
	return models.Project{
		RepoFullName:   i.RepoFullName,
		Provider:       i.Provider,
		Owner:          i.Owner,
		ProjectManager: i.ProjectManager,
	}
}

// contractRef carries the contract identity denormalized onto every item that belongs to a contract.
type contractRef struct {
	RepoFullName string      `dynamodbav:"repo_full_name"`
	Provider     string      `dynamodbav:"provider"`
	Username     string      `dynamodbav:"contributor_username"`
	Role         models.Role `dynamodbav:"role"`
}

func newContractRef(id models.ContractID) contractRef {
	return contractRef{RepoFullName: id.RepoFullName, Provider: id.Provider, Username: id.ContributorUsername, Role: id.Role}
}

func (r contractRef) toModel() models.ContractID {
	return models.ContractID{RepoFullName: r.RepoFullName, Provider: r.Provider, ContributorUsername: r.Username, Role: r.Role}
}

type contractItem struct {
	ProjectID   string `dynamodbav:"project_id"`
	ContractKey string `dynamodbav:"contract_key"`
	contractRef
	HourlyRate       models.Money `dynamodbav:"hourly_rate"`
	Value            models.Money `dynamodbav:"value"`
	Revenue          models.Money `dynamodbav:"revenue"`
	MarkedForRemoval *time.Time   `dynamodbav:"marked_for_removal,omitempty"`
	CreatedAt        time.Time    `dynamodbav:"created_at"`
}

func contractSortKey(id models.ContractID) string {
	return id.ContributorUsername + "#" + string(id.Role)
}

func contractKey(id models.ContractID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"project_id":   &types.AttributeValueMemberS{Value: id.ProjectKey()},
		"contract_key": &types.AttributeValueMemberS{Value: contractSortKey(id)},
	}
}

func newContractItem(c models.Contract) contractItem {
	return contractItem{
		ProjectID:        c.ID.ProjectKey(),
		ContractKey:      contractSortKey(c.ID),
		contractRef:      newContractRef(c.ID),
		HourlyRate:       c.HourlyRate,
		Value:            c.Value,
		Revenue:          c.Revenue,
		MarkedForRemoval: c.MarkedForRemoval,
		CreatedAt:        c.CreatedAt,
	}
}

func (i contractItem) toModel() models.Contract {
	return models.Contract{
		ID:               i.contractRef.toModel(),
		HourlyRate:       i.HourlyRate,
		Value:            i.Value,
		Revenue:          i.Revenue,
		MarkedForRemoval: i.MarkedForRemoval,
		CreatedAt:        i.CreatedAt,
	}
}

type paymentItem struct {
	TransactionID string               `dynamodbav:"transaction_id"`
	Status        models.PaymentStatus `dynamodbav:"status"`
	FailReason    string               `dynamodbav:"fail_reason,omitempty"`
	PaymentTime   time.Time            `dynamodbav:"payment_time"`
	Amount        models.Money         `dynamodbav:"amount"`
	WalletType    models.WalletType    `dynamodbav:"wallet_type"`
}

func newPaymentItem(p models.Payment) paymentItem {
	return paymentItem(p)
}

func (i paymentItem) toModel() models.Payment {
	return models.Payment(i)
}

type invoiceItem struct {
	ContractID string `dynamodbav:"contract_id"`
	InvoiceID  int    `dynamodbav:"invoice_id"`
	contractRef
	Amount      models.Money `dynamodbav:"amount"`
	TotalAmount models.Money `dynamodbav:"total_amount"`
	IsPaid      bool         `dynamodbav:"is_paid"`
	CreatedAt   time.Time    `dynamodbav:"created_at"`
	Latest      *paymentItem `dynamodbav:"latest,omitempty"`

	// Payment lock. The lock attributes only exist while a payment holds the invoice.
	PaymentLock     string `dynamodbav:"payment_lock,omitempty"`
	PaymentLockedAt int64  `dynamodbav:"payment_locked_at,omitempty"`
	LockState       string `dynamodbav:"lock_state,omitempty"`
}

func invoiceKey(contract models.ContractID, invoiceID int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"contract_id": &types.AttributeValueMemberS{Value: contract.String()},
		"invoice_id":  &types.AttributeValueMemberN{Value: strconv.Itoa(invoiceID)},
	}
}

func newInvoiceItem(inv models.Invoice) invoiceItem {
	item := invoiceItem{
		ContractID:  inv.Contract.String(),
		InvoiceID:   inv.ID,
		contractRef: newContractRef(inv.Contract),
		Amount:      inv.Amount,
		TotalAmount: inv.TotalAmount,
		IsPaid:      inv.IsPaid,
		CreatedAt:   inv.CreatedAt,
	}
	if inv.Latest != nil {
		latest := newPaymentItem(*inv.Latest)
		item.Latest = &latest
	}
	return item
}

func (i invoiceItem) toModel() models.Invoice {
	inv := models.Invoice{
		ID:          i.InvoiceID,
		Contract:    i.contractRef.toModel(),
		Amount:      i.Amount,
		TotalAmount: i.TotalAmount,
		IsPaid:      i.IsPaid,
		CreatedAt:   i.CreatedAt,
	}
	if i.Latest != nil {
		latest := i.Latest.toModel()
		inv.Latest = &latest
	}
	return inv
}

func (i invoiceItem) toLock() models.InvoiceLock {
	return models.InvoiceLock{
		Contract:  i.contractRef.toModel(),
		InvoiceID: i.InvoiceID,
		Token:     i.PaymentLock,
		LockedAt:  time.UnixMilli(i.PaymentLockedAt).UTC(),
	}
}

type paymentMethodItem struct {
	ID     string `dynamodbav:"id"`
	Active bool   `dynamodbav:"active"`
}

type billingInfoItem struct {
	Email     string `dynamodbav:"email"`
	Company   string `dynamodbav:"company,omitempty"`
	Address   string `dynamodbav:"address,omitempty"`
	City      string `dynamodbav:"city,omitempty"`
	Zipcode   string `dynamodbav:"zipcode,omitempty"`
	Country   string `dynamodbav:"country,omitempty"`
	TaxID     string `dynamodbav:"tax_id,omitempty"`
	IsCompany bool   `dynamodbav:"is_company"`
}

type walletItem struct {
	ProjectID      string              `dynamodbav:"project_id"`
	WalletType     models.WalletType   `dynamodbav:"wallet_type"`
	Active         bool                `dynamodbav:"active"`
	Cash           models.Money        `dynamodbav:"cash"`
	Debt           models.Money        `dynamodbav:"debt"`
	PaymentMethods []paymentMethodItem `dynamodbav:"payment_methods"`
	BillingInfo    billingInfoItem     `dynamodbav:"billing_info"`
	CreatedAt      time.Time           `dynamodbav:"created_at"`
}

func walletKey(projectKey string, walletType models.WalletType) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"project_id":  &types.AttributeValueMemberS{Value: projectKey},
		"wallet_type": &types.AttributeValueMemberS{Value: string(walletType)},
	}
}

func newWalletItem(w models.Wallet) walletItem {
	methods := make([]paymentMethodItem, 0, len(w.PaymentMethods))
	for _, m := range w.PaymentMethods {
		methods = append(methods, paymentMethodItem(m))
	}
	return walletItem{
		ProjectID:      w.ProjectKey,
		WalletType:     w.Type,
		Active:         w.Active,
		Cash:           w.Cash,
		Debt:           w.Debt,
		PaymentMethods: methods,
		BillingInfo:    billingInfoItem(w.BillingInfo),
		CreatedAt:      w.CreatedAt,
	}
}

func (i walletItem) toModel() models.Wallet {
	methods := make([]models.PaymentMethod, 0, len(i.PaymentMethods))
	for _, m := range i.PaymentMethods {
		methods = append(methods, models.PaymentMethod(m))
	}
	return models.Wallet{
		ProjectKey:     i.ProjectID,
		Type:           i.WalletType,
		Active:         i.Active,
		Cash:           i.Cash,
		Debt:           i.Debt,
		PaymentMethods: methods,
		BillingInfo:    models.BillingInfo(i.BillingInfo),
		CreatedAt:      i.CreatedAt,
	}
}

type paymentRecordItem struct {
	InvoiceKey string `dynamodbav:"invoice_key"`
	EntryID    string `dynamodbav:"entry_id"`
	contractRef
	InvoiceID  int         `dynamodbav:"invoice_id"`
	Payment    paymentItem `dynamodbav:"payment"`
	RecordedAt time.Time   `dynamodbav:"recorded_at"`
}

func ledgerKey(contract models.ContractID, invoiceID int) string {
	return fmt.Sprintf("%s#%d", contract, invoiceID)
}

func newPaymentRecordItem(r models.PaymentRecord) paymentRecordItem {
	return paymentRecordItem{
		InvoiceKey:  ledgerKey(r.Contract, r.InvoiceID),
		EntryID:     r.EntryID,
		contractRef: newContractRef(r.Contract),
		InvoiceID:   r.InvoiceID,
		Payment:     newPaymentItem(r.Payment),
		RecordedAt:  r.RecordedAt,
	}
}

func (i paymentRecordItem) toModel() models.PaymentRecord {
	return models.PaymentRecord{
		EntryID:    i.EntryID,
		Contract:   i.contractRef.toModel(),
		InvoiceID:  i.InvoiceID,
		Payment:    i.Payment.toModel(),
		RecordedAt: i.RecordedAt,
	}
}
