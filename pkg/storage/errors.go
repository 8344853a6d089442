package storage

import "errors"

// ErrNotFound is returned when the requested project, contract, invoice or wallet does not exist.
var ErrNotFound = errors.New("not found")

// ErrContractAlreadyExists is returned when a contract with the same identity is already stored.
var ErrContractAlreadyExists = errors.New("contract already exists")

// ErrWalletAlreadyExists is returned when the project already has a wallet of the given type.
var ErrWalletAlreadyExists = errors.New("wallet already exists")

// ErrPaymentInProgress is returned when another payment already holds the invoice lock.
var ErrPaymentInProgress = errors.New("payment already in progress")

// ErrInvoiceAlreadyPaid is returned when a lock is requested for a paid invoice.
var ErrInvoiceAlreadyPaid = errors.New("invoice already paid")

// ErrLockLost is returned when the caller no longer holds the invoice lock it presents.
var ErrLockLost = errors.New("invoice lock lost")
