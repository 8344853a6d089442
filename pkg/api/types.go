// Package api defines the HTTP surface of the billing service: wire types,
// the server interface and its chi routing.
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ContractId identifies a contract.
type ContractId struct {
	RepoFullName        string `json:"repoFullName"`
	ContributorUsername string `json:"contributorUsername"`
	Provider            string `json:"provider"`
	Role                string `json:"role"`
}

// Contract is the contract view. Money fields are formatted currency strings.
type Contract struct {
	Id                ContractId `json:"id"`
	HourlyRate        string     `json:"hourlyRate"`
	Value             string     `json:"value"`
	Revenue           string     `json:"revenue"`
	MarkedForRemoval  string     `json:"markedForRemoval"`
	ProjectWalletType *string    `json:"projectWalletType,omitempty"`
}

// NewContract is the body of an add-contract request.
type NewContract struct {
	Username   string          `json:"username"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Role       string          `json:"role"`
}

// Payment is one payment attempt.
type Payment struct {
	TransactionId string    `json:"transactionId"`
	Status        string    `json:"status"`
	FailReason    *string   `json:"failReason,omitempty"`
	PaymentTime   time.Time `json:"paymentTime"`
}

// Invoice is the invoice view.
type Invoice struct {
	Id          int       `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Amount      string    `json:"amount"`
	TotalAmount string    `json:"totalAmount"`
	IsPaid      bool      `json:"isPaid"`
	Latest      *Payment  `json:"latest,omitempty"`
}

// PaymentResult is the response of a pay-invoice request.
type PaymentResult struct {
	Paid    int      `json:"paid"`
	Payment *Payment `json:"payment,omitempty"`
	Active  Invoice  `json:"active"`
}

// PaymentRecord is an entry of an invoice's payment history.
type PaymentRecord struct {
	EntryId    string    `json:"entryId"`
	InvoiceId  int       `json:"invoiceId"`
	Amount     string    `json:"amount"`
	WalletType string    `json:"walletType"`
	Payment    Payment   `json:"payment"`
	RecordedAt time.Time `json:"recordedAt"`
}

// PaymentMethodSelf is the identity of a stored payment method.
type PaymentMethodSelf struct {
	PaymentMethodId string `json:"paymentMethodId"`
	Active          bool   `json:"active"`
}

// PaymentMethod is a payment method of a wallet.
type PaymentMethod struct {
	Self PaymentMethodSelf `json:"self"`
}

// Wallet is the wallet view. Money fields are JSON numbers in major units.
type Wallet struct {
	Type           string          `json:"type"`
	Active         bool            `json:"active"`
	Cash           json.Number     `json:"cash"`
	Debt           json.Number     `json:"debt"`
	Available      json.Number     `json:"available"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
}

// BillingInfo holds the invoicing details given when a wallet is created.
type BillingInfo struct {
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Country   string `json:"country,omitempty"`
	TaxId     string `json:"taxId,omitempty"`
	IsCompany bool   `json:"isCompany"`
}

// NewWallet is the body of a create-wallet request.
type NewWallet struct {
	Type        string      `json:"type"`
	BillingInfo BillingInfo `json:"billingInfo"`
}

// CashLimit is the body of an update-cash request.
type CashLimit struct {
	Cash decimal.Decimal `json:"cash"`
}

// ContractParams are the query parameters of the contract-scoped routes.
type ContractParams struct {
	Role string `form:"role" json:"role"`
}
