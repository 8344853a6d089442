package models

import (
	"fmt"
	"time"
)

// Role is the role a contributor plays in a project.
type Role string

const (
	RoleDeveloper Role = "DEV"
	RoleReviewer  Role = "REV"
	RoleQA        Role = "QA"
	RoleArchitect Role = "ARCH"
	RolePO        Role = "PO"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleReviewer, RoleQA, RoleArchitect, RolePO:
		return true
	}
	return false
}

// WalletType identifies the payment backend of a wallet.
type WalletType string

const (
	FakeWallet   WalletType = "FAKE"
	StripeWallet WalletType = "STRIPE"
)

// Valid reports whether t is a supported wallet type.
func (t WalletType) Valid() bool {
	return t == FakeWallet || t == StripeWallet
}

// PaymentStatus defines the possible outcomes of a payment attempt.
type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentError      PaymentStatus = "ERROR"
)

// Project is a repository registered for billing.
type Project struct {
	RepoFullName   string `json:"repoFullName"`
	Provider       string `json:"provider"`
	Owner          string `json:"owner"`
	ProjectManager string `json:"projectManager"`
}

// Key identifies the project across providers.
func (p Project) Key() string {
	return p.Provider + "#" + p.RepoFullName
}

// ContractID identifies a contract: one contributor in one role on one project.
type ContractID struct {
	RepoFullName        string `json:"repoFullName"`
	ContributorUsername string `json:"contributorUsername"`
	Provider            string `json:"provider"`
	Role                Role   `json:"role"`
}

// ProjectKey is the Key of the project the contract belongs to.
func (id ContractID) ProjectKey() string {
	return id.Provider + "#" + id.RepoFullName
}

func (id ContractID) String() string {
	return fmt.Sprintf("%s#%s#%s#%s", id.Provider, id.RepoFullName, id.ContributorUsername, id.Role)
}

// Contract is the agreement between a project and a contributor.
type Contract struct {
	ID               ContractID `json:"id"`
	HourlyRate       Money      `json:"hourlyRate"`
	Value            Money      `json:"value"`
	Revenue          Money      `json:"revenue"`
	MarkedForRemoval *time.Time `json:"markedForRemoval,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// IsMarkedForRemoval reports whether the contract is scheduled for deletion.
func (c Contract) IsMarkedForRemoval() bool {
	return c.MarkedForRemoval != nil
}

// Payment records one attempt to settle an invoice.
type Payment struct {
	TransactionID string        `json:"transactionId"`
	Status        PaymentStatus `json:"status"`
	FailReason    string        `json:"failReason,omitempty"`
	PaymentTime   time.Time     `json:"paymentTime"`
	Amount        Money         `json:"amount"`
	WalletType    WalletType    `json:"walletType"`
}

// Successful reports whether the payment settled its invoice.
func (p Payment) Successful() bool {
	return p.Status == PaymentSuccessful
}

// Invoice is a billing period of a contract. IDs are numbered per contract.
type Invoice struct {
	ID          int        `json:"id"`
	Contract    ContractID `json:"contract"`
	Amount      Money      `json:"amount"`
	TotalAmount Money      `json:"totalAmount"`
	IsPaid      bool       `json:"isPaid"`
	CreatedAt   time.Time  `json:"createdAt"`
	Latest      *Payment   `json:"latest,omitempty"`
}

// InvoiceLock is an exclusive payment claim on an invoice.
type InvoiceLock struct {
	Contract  ContractID `json:"contract"`
	InvoiceID int        `json:"invoiceId"`
	Token     string     `json:"token"`
	LockedAt  time.Time  `json:"lockedAt"`
}

// PaymentMethod is a stored instrument of a wallet.
type PaymentMethod struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// BillingInfo holds the invoicing details of a wallet owner.
type BillingInfo struct {
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Country   string `json:"country,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
	IsCompany bool   `json:"isCompany"`
}

// Wallet funds the payments of a project. At most one wallet per project is active.
type Wallet struct {
	ProjectKey     string          `json:"projectKey"`
	Type           WalletType      `json:"type"`
	Active         bool            `json:"active"`
	Cash           Money           `json:"cash"`
	Debt           Money           `json:"debt"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
	BillingInfo    BillingInfo     `json:"billingInfo"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Available is the cash left after the debt is covered.
func (w Wallet) Available() Money {
	return w.Cash - w.Debt
}

// PaymentEvent is published once a payment outcome has been registered.
type PaymentEvent struct {
	ID         string     `json:"id"`
	Contract   ContractID `json:"contract"`
	InvoiceID  int        `json:"invoiceId"`
	Payment    Payment    `json:"payment"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// PaymentRecord is an append-only ledger entry of a payment attempt.
type PaymentRecord struct {
	EntryID    string     `json:"entryId"`
	Contract   ContractID `json:"contract"`
	InvoiceID  int        `json:"invoiceId"`
	Payment    Payment    `json:"payment"`
	RecordedAt time.Time  `json:"recordedAt"`
}
