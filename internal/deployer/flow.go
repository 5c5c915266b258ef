package deployer

import (
	"context"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/passkey"
)

// AccountDeployer submits deployments, in process or through the deployment server.
type AccountDeployer interface {
	AccountAddress(ctx context.Context, salt *big.Int) (common.Address, error)
	Deploy(ctx context.Context, salt *big.Int, initializer []byte) (*Result, error)
}

// Account is a freshly created smart wallet.
type Account struct {
	Address    common.Address
	Salt       *big.Int
	Credential *passkey.Credential
	PublicKey  []byte
	Receipt    *types.Receipt
}

// Flow creates a smart wallet owned by a new passkey.
type Flow struct {
	Deployer  AccountDeployer
	Passkey   passkey.Signer
	Validator common.Address
	// Entropy seeds the salt; crypto/rand when nil.
	Entropy io.Reader
	// PasskeyTimeout bounds the registration prompt; zero leaves it to ctx.
	PasskeyTimeout time.Duration
}

// Run generates a salt, registers a passkey for the predicted address and deploys the account.
// Nothing is submitted on chain before the passkey is registered.
func (f *Flow) Run(ctx context.Context) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	salt, err := GetSalt(f.Entropy)
	if err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	address, err := f.Deployer.AccountAddress(ctx, salt)
	if err != nil {
		return nil, err
	}
	log.Debug("Predicted account address", "salt", salt.String(), "address", address.Hex())

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	credential, err := f.register(ctx, address)
	if err != nil {
		return nil, &errs.RegistrationError{Err: err}
	}

	publicKey, err := passkey.PublicKeyFromAuthenticatorData(credential.AuthenticatorData)
	if err != nil {
		return nil, &errs.RegistrationError{Err: err}
	}
	initializer, err := BuildInitializer(publicKey, f.Validator)
	if err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	result, err := f.Deployer.Deploy(ctx, salt, initializer)
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:    result.Address,
		Salt:       salt,
		Credential: credential,
		PublicKey:  publicKey,
		Receipt:    result.Receipt,
	}, nil
}

func (f *Flow) register(ctx context.Context, address common.Address) (*passkey.Credential, error) {
	if f.PasskeyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.PasskeyTimeout)
		defer cancel()
	}
	return f.Passkey.Register(ctx, address)
}
