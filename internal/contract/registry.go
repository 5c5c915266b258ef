// Package contract resolves the well-known smart-wallet contracts of a chain and binds handles to them.
package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

// Name is the logical name of a well-known contract.
type Name string

// The fixed set of contract names.
const (
	BatchCaller      Name = "batchCaller"
	Implementation   Name = "implementation"
	RegistryContract Name = "registry"
	GaslessPaymaster Name = "gaslessPaymaster"
	ClaveProxy       Name = "claveProxy"
	PasskeyValidator Name = "passkeyValidator"
	AccountFactory   Name = "accountFactory"
)

// Names lists every recognized contract name.
var Names = []Name{BatchCaller, Implementation, RegistryContract, GaslessPaymaster, ClaveProxy, PasskeyValidator, AccountFactory}

// Set maps every contract name to its address on one chain.
type Set struct {
	BatchCaller      common.Address `json:"batchCaller"`
	Implementation   common.Address `json:"implementation"`
	Registry         common.Address `json:"registry"`
	GaslessPaymaster common.Address `json:"gaslessPaymaster"`
	ClaveProxy       common.Address `json:"claveProxy"`
	PasskeyValidator common.Address `json:"passkeyValidator"`
	AccountFactory   common.Address `json:"accountFactory"`
}

// Address resolves name to its configured address.
func (s Set) Address(name Name) (common.Address, error) {
	switch name {
	case BatchCaller:
		return s.BatchCaller, nil
	case Implementation:
		return s.Implementation, nil
	case RegistryContract:
		return s.Registry, nil
	case GaslessPaymaster:
		return s.GaslessPaymaster, nil
	case ClaveProxy:
		return s.ClaveProxy, nil
	case PasskeyValidator:
		return s.PasskeyValidator, nil
	case AccountFactory:
		return s.AccountFactory, nil
	default:
		return common.Address{}, errs.NewUnknownContractNameError(string(name))
	}
}

// Validate requires every name to resolve to a non-zero address.
func (s Set) Validate() error {
	for _, name := range Names {
		addr, err := s.Address(name)
		if err != nil {
			return err
		}
		if addr == (common.Address{}) {
			return &errs.ConfigurationError{Err: fmt.Errorf("%w: %s is not set", errs.ErrInvalidContractSet, name)}
		}
	}
	return nil
}

// DefaultSets holds the published deployments per chain id.
var DefaultSets = map[int64]Set{
	324: {
		BatchCaller:      common.HexToAddress("0x2Df65b433Cde5ddf121e86327f63CF81926afe5c"),
		Implementation:   common.HexToAddress("0x8B2d3Fb7a4557765a56b0b1b658419F70CF3F974"),
		Registry:         common.HexToAddress("0xc5FF3D69f65275577F3dd7622C132d1FA5C23E8d"),
		GaslessPaymaster: common.HexToAddress("0x620524C8B2A2c24FEaD175F07377a66d9DC8EccA"),
		ClaveProxy:       common.HexToAddress("0x076ecaFAfa75b9f963F93277f0Ca5d6469a4CfD9"),
		PasskeyValidator: common.HexToAddress("0xcfa2A796140668e9878e708B5E050A335DC474F7"),
		AccountFactory:   common.HexToAddress("0x59cA0733496E8f56d83850b91fe50790DE6a003B"),
	},
	300: {
		BatchCaller:      common.HexToAddress("0x1513dB8DdC9420728bFb2830AE6784B26Ac9bf25"),
		Implementation:   common.HexToAddress("0x5627beD3bA7DFc5D9DbAa0122A52C7F22a2DD4D3"),
		Registry:         common.HexToAddress("0x7f273AF2576EA32309c32c9bae2b609B6e4484aC"),
		GaslessPaymaster: common.HexToAddress("0xF83F534153358AD6643B358AC3953f6467d5DAe7"),
		ClaveProxy:       common.HexToAddress("0x3b633b071ABFf838d30D1a326744D8277Fad468c"),
		PasskeyValidator: common.HexToAddress("0xDA63bBbc0A1a3F94e95c6bdd2DCB7B7112e3C635"),
		AccountFactory:   common.HexToAddress("0x281d01350B4449D6F4B3a58ce7F342c5221E1636"),
	},
}

// Registry produces contract handles for a fixed contract set.
type Registry struct {
	contracts Set
	backend   bind.ContractBackend
}

// New validates contracts and binds them to backend.
func New(contracts Set, backend bind.ContractBackend) (*Registry, error) {
	if err := contracts.Validate(); err != nil {
		return nil, err
	}
	return &Registry{contracts: contracts, backend: backend}, nil
}

// Contracts returns the contract set.
func (r *Registry) Contracts() Set {
	return r.contracts
}

// GetContract returns a read-only handle for name.
func (r *Registry) GetContract(name Name, contractABI abi.ABI) (*Handle, error) {
	addr, err := r.contracts.Address(name)
	if err != nil {
		return nil, err
	}
	return &Handle{
		Name:     name,
		Address:  addr,
		ABI:      contractABI,
		contract: bind.NewBoundContract(addr, contractABI, r.backend, r.backend, r.backend),
	}, nil
}

// GetContractWithSigner returns a handle whose transactions are signed by wallet.
func (r *Registry) GetContractWithSigner(name Name, contractABI abi.ABI, wallet *bind.TransactOpts) (*Handle, error) {
	if wallet == nil {
		return nil, &errs.ConfigurationError{Err: errs.ErrMissingDeployerKey}
	}
	h, err := r.GetContract(name, contractABI)
	if err != nil {
		return nil, err
	}
	h.wallet = wallet
	return h, nil
}

// Handle is a contract bound to an address, optionally with a signing wallet.
type Handle struct {
	Name    Name
	Address common.Address
	ABI     abi.ABI

	contract *bind.BoundContract
	wallet   *bind.TransactOpts
}

// Writable reports whether the handle can send transactions.
func (h *Handle) Writable() bool {
	return h.wallet != nil
}

// Call invokes a constant method.
func (h *Handle) Call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := h.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", h.Name, method, err)
	}
	return out, nil
}

// Transact sends a transaction invoking method. A zero gasLimit lets the node estimate.
func (h *Handle) Transact(ctx context.Context, gasLimit uint64, method string, params ...interface{}) (*types.Transaction, error) {
	if h.wallet == nil {
		return nil, &errs.ConfigurationError{Err: fmt.Errorf("%w: %s.%s", errs.ErrReadOnlyHandle, h.Name, method)}
	}
	opts := *h.wallet
	opts.Context = ctx
	opts.GasLimit = gasLimit
	return h.contract.Transact(&opts, method, params...)
}
