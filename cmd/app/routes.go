package main

import (
	"log/slog"
	"net/http"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/bootstrap"
	"github.com/chris/project-billing/pkg/config"
	"github.com/chris/project-billing/pkg/handlers"
	"github.com/chris/project-billing/pkg/handlers/contracts"
	"github.com/chris/project-billing/pkg/handlers/invoices"
	"github.com/chris/project-billing/pkg/handlers/wallets"
	requestlog "github.com/chris/project-billing/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newRouter(cfg config.BillingConfig, backends *bootstrap.Backends, logger *slog.Logger) http.Handler {
	contractOrchestrator := billing.NewContractOrchestrator(backends.Store, cfg.Provider, logger)
	paymentOrchestrator := billing.NewPaymentOrchestrator(backends.Store, backends.Gateway, backends.Publisher, cfg.Provider, logger)
	paymentOrchestrator.GatewayTimeout = cfg.GatewayTimeout
	walletOrchestrator := billing.NewWalletOrchestrator(backends.Store, cfg.Provider, logger)

	handler := handlers.NewApiHandler(
		contracts.NewContractsHandler(contractOrchestrator, logger),
		invoices.NewInvoicesHandler(contractOrchestrator, paymentOrchestrator, logger),
		wallets.NewWalletsHandler(walletOrchestrator, logger),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestlog.NewStructuredLogger(logger))
	router.Use(middleware.Recoverer)

	return api.HandlerFromMux(handler, router)
}
