package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Factory is the account factory contract.
type Factory struct {
	handle *Handle
}

// NewFactory binds the account factory. wallet may be nil for a read-only factory.
func NewFactory(r *Registry, wallet *bind.TransactOpts) (*Factory, error) {
	var (
		h   *Handle
		err error
	)
	if wallet == nil {
		h, err = r.GetContract(AccountFactory, AccountFactoryABI)
	} else {
		h, err = r.GetContractWithSigner(AccountFactory, AccountFactoryABI, wallet)
	}
	if err != nil {
		return nil, err
	}
	return &Factory{handle: h}, nil
}

// Address returns the factory address.
func (f *Factory) Address() common.Address {
	return f.handle.Address
}

// DeployAccount calls deployAccount(salt, initializer).
func (f *Factory) DeployAccount(ctx context.Context, gasLimit uint64, salt *big.Int, initializer []byte) (*types.Transaction, error) {
	return f.handle.Transact(ctx, gasLimit, "deployAccount", salt, initializer)
}

// AddressForSalt asks the factory for the account address of salt.
func (f *Factory) AddressForSalt(ctx context.Context, salt [32]byte) (common.Address, error) {
	out, err := f.handle.Call(ctx, "getAddressForSalt", salt)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected getAddressForSalt output length %d", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getAddressForSalt output type %T", out[0])
	}
	return addr, nil
}
