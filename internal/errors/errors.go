// Package errors defines the error taxonomy shared by the smart-wallet SDK and deployment server.
package errors

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrUnsupportedChain is wrapped when a chain id has no known RPC endpoint.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrUnknownContractName is wrapped when a contract name is not part of the contract set.
	ErrUnknownContractName = errors.New("unknown contract name")
	// ErrInvalidContractSet is wrapped when a contract set misses an entry or holds a zero address.
	ErrInvalidContractSet = errors.New("invalid contract set")
	// ErrMissingDeployerKey is wrapped when no deployer signing key is configured.
	ErrMissingDeployerKey = errors.New("DEPLOYER_PRIVATE_KEY is not set")
	// ErrTransactionConsumed is returned when a sent transaction builder is reused.
	ErrTransactionConsumed = errors.New("transaction already sent")
	// ErrReadOnlyHandle is returned when a transaction is attempted through a read-only contract handle.
	ErrReadOnlyHandle = errors.New("contract handle is read-only")
)

// ConfigurationError is a fatal setup problem: missing key, unsupported chain, bad contract set.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Err.Error() }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewUnsupportedChainError returns a ConfigurationError for an unknown chain id.
func NewUnsupportedChainError(chainID int64) error {
	return &ConfigurationError{Err: fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)}
}

// NewUnknownContractNameError returns a ConfigurationError for an unknown contract name.
func NewUnknownContractNameError(name string) error {
	return &ConfigurationError{Err: fmt.Errorf("%w: %q", ErrUnknownContractName, name)}
}

// NetworkError is a transient failure talking to the RPC node.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error during %s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// RetryExhaustedError wraps the last error after every attempt failed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// SigningError is returned when the passkey signer rejects or times out.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "passkey signing failed: " + e.Err.Error() }

func (e *SigningError) Unwrap() error { return e.Err }

// RegistrationError is returned when passkey registration fails or is cancelled.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string { return "passkey registration failed: " + e.Err.Error() }

func (e *RegistrationError) Unwrap() error { return e.Err }

// SubmissionError is returned when the node rejects a transaction.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "transaction submission failed: " + e.Err.Error() }

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError is returned when a submitted transaction is not mined in time.
type ConfirmationTimeoutError struct {
	TxHash common.Hash
	Err    error
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed: %v", e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return e.Err }

// DeploymentFailedError carries the receipt of a deployment that was mined but reverted.
type DeploymentFailedError struct {
	Receipt *types.Receipt
}

func (e *DeploymentFailedError) Error() string {
	if e.Receipt == nil {
		return "deployment failed"
	}
	return fmt.Sprintf("deployment failed: tx %s status %d", e.Receipt.TxHash.Hex(), e.Receipt.Status)
}

// AlreadyDeployedError is returned when the account for a salt already has code on chain.
type AlreadyDeployedError struct {
	Address common.Address
	Salt    *big.Int
}

func (e *AlreadyDeployedError) Error() string {
	return fmt.Sprintf("account %s already deployed for salt %s", e.Address.Hex(), e.Salt)
}

// JSON-RPC error codes that never succeed on retry.
var fatalRPCCodes = map[int]struct{}{
	-32600: {}, // invalid request
	-32601: {}, // method not found
	-32602: {}, // invalid params
	3:      {}, // execution reverted
}

// IsRetryable reports whether err may succeed when the same operation is attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var (
		cfgErr       *ConfigurationError
		signErr      *SigningError
		regErr       *RegistrationError
		deployedErr  *AlreadyDeployedError
		failedErr    *DeploymentFailedError
		exhaustedErr *RetryExhaustedError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &signErr), errors.As(err, &regErr),
		errors.As(err, &deployedErr), errors.As(err, &failedErr), errors.As(err, &exhaustedErr):
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if _, fatal := fatalRPCCodes[rpcErr.ErrorCode()]; fatal {
			return false
		}
	}

	return !strings.Contains(err.Error(), "execution reverted")
}
