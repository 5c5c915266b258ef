// Package deployer creates smart-wallet accounts through the account factory.
package deployer

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	create2Prefix = crypto.Keccak256([]byte("zksyncCreate2"))
	maxUint256    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// ComputeAddress returns the ZKsync CREATE2 address of a contract deployed by deployer.
func ComputeAddress(deployer common.Address, salt [32]byte, bytecodeHash common.Hash, constructorInput []byte) common.Address {
	hash := crypto.Keccak256(
		create2Prefix,
		common.LeftPadBytes(deployer.Bytes(), 32),
		salt[:],
		bytecodeHash.Bytes(),
		crypto.Keccak256(constructorInput),
	)
	return common.BytesToAddress(hash[12:])
}

// Predictor computes account addresses offline.
type Predictor struct {
	Factory           common.Address
	Implementation    common.Address
	ProxyBytecodeHash common.Hash
}

// AccountAddress returns the address the factory deploys the proxy for salt to.
func (p Predictor) AccountAddress(salt *big.Int) common.Address {
	// The proxy constructor takes abi.encode(implementation).
	constructorInput := common.LeftPadBytes(p.Implementation.Bytes(), 32)
	return ComputeAddress(p.Factory, SaltBytes(salt), p.ProxyBytecodeHash, constructorInput)
}

// GetSalt reads a 256-bit salt from entropy, crypto/rand when nil.
func GetSalt(entropy io.Reader) (*big.Int, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	buf := make([]byte, 32)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return nil, fmt.Errorf("failed to read salt entropy: %w", err)
	}
	return new(big.Int).SetBytes(buf), nil
}

// SaltBytes returns salt as a big-endian 32-byte word.
func SaltBytes(salt *big.Int) [32]byte {
	var out [32]byte
	if salt != nil {
		salt.FillBytes(out[:])
	}
	return out
}

// ParseSalt accepts a decimal or 0x-prefixed hex uint256.
func ParseSalt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("salt is empty")
	}

	var (
		salt *big.Int
		ok   bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return nil, fmt.Errorf("invalid salt %q", s)
		}
		salt, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		salt, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid salt %q", s)
	}
	if salt.Sign() < 0 || salt.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("salt %q out of uint256 range", s)
	}
	return salt, nil
}
