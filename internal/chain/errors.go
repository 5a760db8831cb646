package chain

import "errors"

var (
	ErrFetchFailed         = errors.New("document fetch failed")
	ErrWalletNotReady      = errors.New("wallet not ready")
	ErrWrongNetwork        = errors.New("wallet is connected to the wrong network")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrNameNotFound        = errors.New("ens name not found")
	ErrUnsupportedCall     = errors.New("call not supported by backend")
	ErrUnknownAccount      = errors.New("account not found in keystore")
)
