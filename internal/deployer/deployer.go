package deployer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/asgarovf/smart-wallet/internal/chain"
	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/retry"
)

const (
	// DefaultGasLimit is the gas limit of deployAccount transactions.
	DefaultGasLimit uint64 = 1_000_000_000
	// DefaultConfirmationTimeout bounds the wait for the deployment receipt.
	DefaultConfirmationTimeout = 2 * time.Minute
)

// Factory is the account factory contract.
type Factory interface {
	Address() common.Address
	DeployAccount(ctx context.Context, gasLimit uint64, salt *big.Int, initializer []byte) (*types.Transaction, error)
	AddressForSalt(ctx context.Context, salt [32]byte) (common.Address, error)
}

// Backend reads account code and receipts.
type Backend interface {
	chain.ReceiptBackend
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Config tunes a Deployer.
type Config struct {
	GasLimit uint64
	// Predictor computes addresses offline when set; otherwise the factory is asked.
	Predictor           *Predictor
	Retry               retry.Config
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
}

// Result describes a mined deployment.
type Result struct {
	Address common.Address
	Salt    *big.Int
	Receipt *types.Receipt
}

// Deployer sends deployAccount transactions with the deployer key bound into factory.
type Deployer struct {
	factory Factory
	backend Backend
	cfg     Config
}

// New returns a Deployer, filling zero config values with defaults.
func New(factory Factory, backend Backend, cfg Config) *Deployer {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = chain.DefaultPollInterval
	}
	return &Deployer{factory: factory, backend: backend, cfg: cfg}
}

// AccountAddress returns the address the account for salt is or will be deployed to.
func (d *Deployer) AccountAddress(ctx context.Context, salt *big.Int) (common.Address, error) {
	if d.cfg.Predictor != nil {
		return d.cfg.Predictor.AccountAddress(salt), nil
	}
	return retry.Do(ctx, d.cfg.Retry, func(ctx context.Context) (common.Address, error) {
		addr, err := d.factory.AddressForSalt(ctx, SaltBytes(salt))
		if err != nil {
			return common.Address{}, &errs.NetworkError{Op: "getAddressForSalt", Err: err}
		}
		return addr, nil
	})
}

// Deploy calls deployAccount(salt, initializer) and waits for the receipt.
// It fails with *errors.AlreadyDeployedError when the account already has code.
func (d *Deployer) Deploy(ctx context.Context, salt *big.Int, initializer []byte) (*Result, error) {
	address, err := d.AccountAddress(ctx, salt)
	if err != nil {
		return nil, err
	}

	deployed, err := d.hasCode(ctx, address)
	if err != nil {
		return nil, err
	}
	if deployed {
		return nil, &errs.AlreadyDeployedError{Address: address, Salt: salt}
	}

	tx, err := retry.Do(ctx, d.cfg.Retry, func(ctx context.Context) (*types.Transaction, error) {
		return d.factory.DeployAccount(ctx, d.cfg.GasLimit, salt, initializer)
	})
	if err != nil {
		// A concurrent deployment of the same salt makes the call revert.
		if deployed, codeErr := d.hasCode(ctx, address); codeErr == nil && deployed {
			return nil, &errs.AlreadyDeployedError{Address: address, Salt: salt}
		}
		log.Error("Failed to send deployAccount", "salt", salt.String(), "address", address.Hex(), "error", err)
		return nil, err
	}
	log.Info("Account deployment submitted", "tx", tx.Hash().Hex(), "salt", salt.String(), "address", address.Hex())

	waitCtx, cancel := context.WithTimeout(ctx, d.cfg.ConfirmationTimeout)
	defer cancel()
	receipt, err := chain.WaitMined(waitCtx, d.backend, tx.Hash(), d.cfg.PollInterval)
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		if deployed, codeErr := d.hasCode(ctx, address); codeErr == nil && deployed {
			return nil, &errs.AlreadyDeployedError{Address: address, Salt: salt}
		}
		log.Warn("Account deployment reverted", "tx", tx.Hash().Hex(), "salt", salt.String())
		return nil, &errs.DeploymentFailedError{Receipt: receipt}
	}

	log.Info("Account deployed", "tx", tx.Hash().Hex(), "address", address.Hex(), "block", receipt.BlockNumber)
	return &Result{Address: address, Salt: salt, Receipt: receipt}, nil
}

func (d *Deployer) hasCode(ctx context.Context, address common.Address) (bool, error) {
	code, err := retry.Do(ctx, d.cfg.Retry, func(ctx context.Context) ([]byte, error) {
		code, err := d.backend.CodeAt(ctx, address, nil)
		if err != nil {
			return nil, &errs.NetworkError{Op: "eth_getCode", Err: err}
		}
		return code, nil
	})
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}
