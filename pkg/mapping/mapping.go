package mapping

import (
	"encoding/json"
	"time"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// currencyPrinter renders amounts the way invoices are printed: "1.234,50 €".
var currencyPrinter = message.NewPrinter(language.German)

// FormatCurrency formats an amount as a German-locale euro string.
func FormatCurrency(m models.Money) string {
	return currencyPrinter.Sprintf("%v €", number.Decimal(m.Decimal().InexactFloat64(), number.Scale(2)))
}

// MoneyNumber renders an amount as a JSON number in major units, e.g. 10.50.
func MoneyNumber(m models.Money) json.Number {
	return json.Number(m.String())
}

// ToApiContract converts a domain Contract to an API Contract.
// walletType is the project's active wallet type and is omitted when empty.
func ToApiContract(c *models.Contract, walletType models.WalletType) *api.Contract {
	contract := &api.Contract{
		Id: api.ContractId{
			RepoFullName:        c.ID.RepoFullName,
			ContributorUsername: c.ID.ContributorUsername,
			Provider:            c.ID.Provider,
			Role:                string(c.ID.Role),
		},
		HourlyRate:       FormatCurrency(c.HourlyRate),
		Value:            FormatCurrency(c.Value),
		Revenue:          FormatCurrency(c.Revenue),
		MarkedForRemoval: "null",
	}
	if c.MarkedForRemoval != nil {
		contract.MarkedForRemoval = c.MarkedForRemoval.UTC().Format(time.RFC3339)
	}
	if walletType != "" {
		wt := string(walletType)
		contract.ProjectWalletType = &wt
	}
	return contract
}

// ToApiPayment converts a domain Payment to an API Payment.
// The fail reason is only rendered for unsuccessful attempts.
func ToApiPayment(p *models.Payment) *api.Payment {
	payment := &api.Payment{
		TransactionId: p.TransactionID,
		Status:        string(p.Status),
		PaymentTime:   p.PaymentTime,
	}
	if !p.Successful() && p.FailReason != "" {
		reason := p.FailReason
		payment.FailReason = &reason
	}
	return payment
}

// ToApiInvoice converts a domain Invoice to an API Invoice.
func ToApiInvoice(inv *models.Invoice) *api.Invoice {
	invoice := &api.Invoice{
		Id:          inv.ID,
		CreatedAt:   inv.CreatedAt,
		Amount:      FormatCurrency(inv.Amount),
		TotalAmount: FormatCurrency(inv.TotalAmount),
		IsPaid:      inv.IsPaid,
	}
	if inv.Latest != nil {
		invoice.Latest = ToApiPayment(inv.Latest)
	}
	return invoice
}

// ToApiPaymentResult converts the outcome of a pay-invoice call.
func ToApiPaymentResult(res *billing.PaymentResult) *api.PaymentResult {
	result := &api.PaymentResult{
		Paid:   res.Paid,
		Active: *ToApiInvoice(&res.Active),
	}
	if res.Payment != nil {
		result.Payment = ToApiPayment(res.Payment)
	}
	return result
}

// ToApiPaymentRecord converts a ledger entry.
func ToApiPaymentRecord(rec *models.PaymentRecord) *api.PaymentRecord {
	return &api.PaymentRecord{
		EntryId:    rec.EntryID,
		InvoiceId:  rec.InvoiceID,
		Amount:     FormatCurrency(rec.Payment.Amount),
		WalletType: string(rec.Payment.WalletType),
		Payment:    *ToApiPayment(&rec.Payment),
		RecordedAt: rec.RecordedAt,
	}
}

// ToApiWallet converts a domain Wallet to an API Wallet.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	methods := make([]api.PaymentMethod, len(wallet.PaymentMethods))
	for i, pm := range wallet.PaymentMethods {
		methods[i] = api.PaymentMethod{Self: api.PaymentMethodSelf{PaymentMethodId: pm.ID, Active: pm.Active}}
	}
	return &api.Wallet{
		Type:           string(wallet.Type),
		Active:         wallet.Active,
		Cash:           MoneyNumber(wallet.Cash),
		Debt:           MoneyNumber(wallet.Debt),
		Available:      MoneyNumber(wallet.Available()),
		PaymentMethods: methods,
	}
}

// ToDomainBillingInfo converts the billing details of a create-wallet request.
func ToDomainBillingInfo(info *api.BillingInfo) models.BillingInfo {
	return models.BillingInfo{
		Email:     info.Email,
		Company:   info.Company,
		Address:   info.Address,
		City:      info.City,
		Zipcode:   info.Zipcode,
		Country:   info.Country,
		TaxID:     info.TaxId,
		IsCompany: info.IsCompany,
	}
}
