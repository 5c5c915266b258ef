package deployer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/asgarovf/smart-wallet/internal/contract"
)

// initCall mirrors the account's Call struct.
type initCall struct {
	Target       common.Address
	AllowFailure bool
	Value        *big.Int
	CallData     []byte
}

// BuildInitializer encodes initialize(publicKey, validator, [], emptyCall) for a new account.
func BuildInitializer(publicKey []byte, validator common.Address) ([]byte, error) {
	if len(publicKey) == 0 {
		return nil, fmt.Errorf("public key is empty")
	}
	data, err := contract.AccountImplementationABI.Pack(
		"initialize",
		publicKey,
		validator,
		[][]byte{},
		initCall{Value: new(big.Int), CallData: []byte{}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initializer: %w", err)
	}
	return data, nil
}
