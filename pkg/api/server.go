package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /healthz)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /api/repos/{owner}/{name}/contracts)
	ListContracts(w http.ResponseWriter, r *http.Request, owner string, name string)
	// (POST /api/repos/{owner}/{name}/contracts)
	AddContract(w http.ResponseWriter, r *http.Request, owner string, name string)
	// (GET /api/repos/{owner}/{name}/contracts/{username})
	GetContract(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params ContractParams)
	// (PUT /api/repos/{owner}/{name}/contracts/{username}/restore)
	RestoreContract(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params ContractParams)
	// (GET /api/repos/{owner}/{name}/contracts/{username}/invoices)
	ListInvoices(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params ContractParams)
	// (PUT /api/repos/{owner}/{name}/contracts/{username}/invoices/{invoiceId}/pay)
	PayInvoice(w http.ResponseWriter, r *http.Request, owner string, name string, username string, invoiceId int, params ContractParams)
	// (GET /api/repos/{owner}/{name}/contracts/{username}/invoices/{invoiceId}/payments)
	ListPayments(w http.ResponseWriter, r *http.Request, owner string, name string, username string, invoiceId int, params ContractParams)
	// (GET /api/repos/{owner}/{name}/wallets)
	ListWallets(w http.ResponseWriter, r *http.Request, owner string, name string)
	// (POST /api/repos/{owner}/{name}/wallets)
	CreateWallet(w http.ResponseWriter, r *http.Request, owner string, name string)
	// (PUT /api/repos/{owner}/{name}/wallets/{type}/active)
	ActivateWallet(w http.ResponseWriter, r *http.Request, owner string, name string, walletType string)
	// (PUT /api/repos/{owner}/{name}/wallets/{type}/cash)
	UpdateWalletCash(w http.ResponseWriter, r *http.Request, owner string, name string, walletType string)
}

// ServerInterfaceWrapper converts request parameters into the typed arguments of a ServerInterface.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// RequiredParamError reports a missing required query parameter.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetHealth(w, r)
}

func (siw *ServerInterfaceWrapper) ListContracts(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	siw.Handler.ListContracts(w, r, owner, name)
}

func (siw *ServerInterfaceWrapper) AddContract(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	siw.Handler.AddContract(w, r, owner, name)
}

func (siw *ServerInterfaceWrapper) GetContract(w http.ResponseWriter, r *http.Request) {
	owner, name, username, params, ok := siw.contract(w, r)
	if !ok {
		return
	}
	siw.Handler.GetContract(w, r, owner, name, username, params)
}

func (siw *ServerInterfaceWrapper) RestoreContract(w http.ResponseWriter, r *http.Request) {
	owner, name, username, params, ok := siw.contract(w, r)
	if !ok {
		return
	}
	siw.Handler.RestoreContract(w, r, owner, name, username, params)
}

func (siw *ServerInterfaceWrapper) ListInvoices(w http.ResponseWriter, r *http.Request) {
	owner, name, username, params, ok := siw.contract(w, r)
	if !ok {
		return
	}
	siw.Handler.ListInvoices(w, r, owner, name, username, params)
}

func (siw *ServerInterfaceWrapper) PayInvoice(w http.ResponseWriter, r *http.Request) {
	owner, name, username, params, ok := siw.contract(w, r)
	if !ok {
		return
	}
	var invoiceId int
	if !siw.pathParam(w, r, "invoiceId", &invoiceId) {
		return
	}
	siw.Handler.PayInvoice(w, r, owner, name, username, invoiceId, params)
}

func (siw *ServerInterfaceWrapper) ListPayments(w http.ResponseWriter, r *http.Request) {
	owner, name, username, params, ok := siw.contract(w, r)
	if !ok {
		return
	}
	var invoiceId int
	if !siw.pathParam(w, r, "invoiceId", &invoiceId) {
		return
	}
	siw.Handler.ListPayments(w, r, owner, name, username, invoiceId, params)
}

func (siw *ServerInterfaceWrapper) ListWallets(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	siw.Handler.ListWallets(w, r, owner, name)
}

func (siw *ServerInterfaceWrapper) CreateWallet(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	siw.Handler.CreateWallet(w, r, owner, name)
}

func (siw *ServerInterfaceWrapper) ActivateWallet(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	var walletType string
	if !siw.pathParam(w, r, "type", &walletType) {
		return
	}
	siw.Handler.ActivateWallet(w, r, owner, name, walletType)
}

func (siw *ServerInterfaceWrapper) UpdateWalletCash(w http.ResponseWriter, r *http.Request) {
	owner, name, ok := siw.repo(w, r)
	if !ok {
		return
	}
	var walletType string
	if !siw.pathParam(w, r, "type", &walletType) {
		return
	}
	siw.Handler.UpdateWalletCash(w, r, owner, name, walletType)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, paramName string, dest any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", paramName, chi.URLParam(r, paramName), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: paramName, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) repo(w http.ResponseWriter, r *http.Request) (owner, name string, ok bool) {
	ok = siw.pathParam(w, r, "owner", &owner) && siw.pathParam(w, r, "name", &name)
	return owner, name, ok
}

func (siw *ServerInterfaceWrapper) contract(w http.ResponseWriter, r *http.Request) (owner, name, username string, params ContractParams, ok bool) {
	if owner, name, ok = siw.repo(w, r); !ok {
		return
	}
	if ok = siw.pathParam(w, r, "username", &username); !ok {
		return
	}

	if r.URL.Query().Get("role") == "" {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: "role"})
		return owner, name, username, params, false
	}
	if err := runtime.BindQueryParameter("form", true, true, "role", r.URL.Query(), &params.Role); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "role", Err: err})
		return owner, name, username, params, false
	}
	return owner, name, username, params, true
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux registers the routes of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions registers the routes of si according to options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	base := options.BaseURL + "/api/repos/{owner}/{name}"
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/healthz", wrapper.GetHealth)
		r.Get(base+"/contracts", wrapper.ListContracts)
		r.Post(base+"/contracts", wrapper.AddContract)
		r.Get(base+"/contracts/{username}", wrapper.GetContract)
		r.Put(base+"/contracts/{username}/restore", wrapper.RestoreContract)
		r.Get(base+"/contracts/{username}/invoices", wrapper.ListInvoices)
		r.Put(base+"/contracts/{username}/invoices/{invoiceId}/pay", wrapper.PayInvoice)
		r.Get(base+"/contracts/{username}/invoices/{invoiceId}/payments", wrapper.ListPayments)
		r.Get(base+"/wallets", wrapper.ListWallets)
		r.Post(base+"/wallets", wrapper.CreateWallet)
		r.Put(base+"/wallets/{type}/active", wrapper.ActivateWallet)
		r.Put(base+"/wallets/{type}/cash", wrapper.UpdateWalletCash)
	})
	return r
}
