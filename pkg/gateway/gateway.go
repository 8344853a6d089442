// Package gateway dispatches invoice payments to the backend of a wallet.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/project-billing/pkg/models"
)

// ErrNoGateway is returned when no gateway serves the wallet's type.
var ErrNoGateway = errors.New("no payment gateway for wallet type")

// Gateway charges a wallet for an invoice.
// A returned error means the outcome is unknown; declined payments are reported
// through the Payment status instead.
type Gateway interface {
	Pay(ctx context.Context, wallet models.Wallet, invoice models.Invoice) (*models.Payment, error)
}

// Router picks the Gateway registered for the wallet's type.
type Router struct {
	gateways map[models.WalletType]Gateway
}

// NewRouter creates a Router with no gateways registered.
func NewRouter() *Router {
	return &Router{gateways: make(map[models.WalletType]Gateway)}
}

// Register serves walletType with g.
func (r *Router) Register(walletType models.WalletType, g Gateway) *Router {
	r.gateways[walletType] = g
	return r
}

// Make sure we conform to the interface
var _ Gateway = (*Router)(nil)

func (r *Router) Pay(ctx context.Context, wallet models.Wallet, invoice models.Invoice) (*models.Payment, error) {
	g, ok := r.gateways[wallet.Type]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoGateway, wallet.Type)
	}
	return g.Pay(ctx, wallet, invoice)
}
