package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Errors returned by HashBytecode.
var (
	ErrBytecodeLength  = errors.New("bytecode length in bytes must be divisible by 32")
	ErrBytecodeTooLong = errors.New("bytecode length in words must be less than 2^16")
	ErrBytecodeEven    = errors.New("bytecode length in words must be odd")
)

const bytecodeHashVersion = 1

var eip712Types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	"Transaction": {
		{Name: "txType", Type: "uint256"},
		{Name: "from", Type: "uint256"},
		{Name: "to", Type: "uint256"},
		{Name: "gasLimit", Type: "uint256"},
		{Name: "gasPerPubdataByteLimit", Type: "uint256"},
		{Name: "maxFeePerGas", Type: "uint256"},
		{Name: "maxPriorityFeePerGas", Type: "uint256"},
		{Name: "paymaster", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "factoryDeps", Type: "bytes32[]"},
		{Name: "paymasterInput", Type: "bytes"},
	},
}

// TypedData returns the EIP-712 structure the account validates the signature against.
func TypedData(req *Request) (apitypes.TypedData, error) {
	if req.ChainID == nil {
		return apitypes.TypedData{}, errors.New("chain id is required")
	}

	var to common.Address
	if req.To != nil {
		to = *req.To
	}
	var (
		paymaster      common.Address
		paymasterInput = []byte{}
	)
	if pp := req.CustomData.PaymasterParams; pp != nil {
		paymaster = pp.Paymaster
		if pp.PaymasterInput != nil {
			paymasterInput = pp.PaymasterInput
		}
	}

	deps := make([]interface{}, 0, len(req.CustomData.FactoryDeps))
	for i, dep := range req.CustomData.FactoryDeps {
		hash, err := HashBytecode(dep)
		if err != nil {
			return apitypes.TypedData{}, fmt.Errorf("factory dependency %d: %w", i, err)
		}
		deps = append(deps, hash[:])
	}

	data := req.Data
	if data == nil {
		data = []byte{}
	}

	return apitypes.TypedData{
		Types:       eip712Types,
		PrimaryType: "Transaction",
		Domain: apitypes.TypedDataDomain{
			Name:    "zkSync",
			Version: "2",
			ChainId: (*math.HexOrDecimal256)(new(big.Int).Set(req.ChainID)),
		},
		Message: apitypes.TypedDataMessage{
			"txType":                 big.NewInt(EIP712TxType),
			"from":                   new(big.Int).SetBytes(req.From.Bytes()),
			"to":                     new(big.Int).SetBytes(to.Bytes()),
			"gasLimit":               new(big.Int).SetUint64(req.GasLimit),
			"gasPerPubdataByteLimit": new(big.Int).Set(req.gasPerPubdata()),
			"maxFeePerGas":           new(big.Int).Set(bigOrZero(req.MaxFeePerGas)),
			"maxPriorityFeePerGas":   new(big.Int).Set(bigOrZero(req.MaxPriorityFeePerGas)),
			"paymaster":              new(big.Int).SetBytes(paymaster.Bytes()),
			"nonce":                  new(big.Int).SetUint64(req.Nonce),
			"value":                  new(big.Int).Set(bigOrZero(req.Value)),
			"data":                   data,
			"factoryDeps":            deps,
			"paymasterInput":         paymasterInput,
		},
	}, nil
}

// SignedDigest returns the EIP-712 hash of req that the account's validator checks.
func SignedDigest(req *Request) (common.Hash, error) {
	typedData, err := TypedData(req)
	if err != nil {
		return common.Hash{}, err
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// HashBytecode returns the versioned hash ZKsync uses to identify deployed bytecode.
func HashBytecode(bytecode []byte) (common.Hash, error) {
	if len(bytecode)%32 != 0 {
		return common.Hash{}, ErrBytecodeLength
	}
	words := len(bytecode) / 32
	if words >= 1<<16 {
		return common.Hash{}, ErrBytecodeTooLong
	}
	if words%2 == 0 {
		return common.Hash{}, ErrBytecodeEven
	}

	hash := sha256.Sum256(bytecode)
	hash[0] = bytecodeHashVersion
	hash[1] = 0
	binary.BigEndian.PutUint16(hash[2:4], uint16(words))
	return hash, nil
}
