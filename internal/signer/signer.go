// Package signer provides the EOA key that submits factory transactions, held locally or in AWS KMS.
package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

// Signer signs 32-byte digests on behalf of a single address.
type Signer interface {
	Address() common.Address
	// SignHash returns a 65-byte [R || S || V] signature with V in {0, 1}.
	SignHash(ctx context.Context, hash []byte) ([]byte, error)
}

// New picks the signer from the configuration; exactly one of privateKeyHex and kmsKeyID may be set.
func New(ctx context.Context, privateKeyHex, kmsKeyID string) (Signer, error) {
	hasPrivateKey := privateKeyHex != ""
	hasKMSKey := kmsKeyID != ""

	if !hasPrivateKey && !hasKMSKey {
		return nil, &errs.ConfigurationError{Err: errs.ErrMissingDeployerKey}
	}
	if hasPrivateKey && hasKMSKey {
		return nil, &errs.ConfigurationError{Err: fmt.Errorf("cannot specify both deployer private key and AWS KMS key ID")}
	}

	if hasPrivateKey {
		s, err := NewPrivateKeySigner(privateKeyHex)
		if err != nil {
			return nil, &errs.ConfigurationError{Err: err}
		}
		log.Info("Deployer signer initialized with private key", "address", s.Address().Hex())
		return s, nil
	}

	s, err := NewKMSSigner(ctx, kmsKeyID)
	if err != nil {
		return nil, err
	}
	log.Info("Deployer signer initialized with AWS KMS", "address", s.Address().Hex(), "key_id", kmsKeyID)
	return s, nil
}

// TransactOpts binds s to contract transactions on chainID.
func TransactOpts(ctx context.Context, s Signer, chainID *big.Int) *bind.TransactOpts {
	txSigner := types.LatestSignerForChainID(chainID)
	from := s.Address()
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if address != from {
				return nil, bind.ErrNotAuthorized
			}
			sig, err := s.SignHash(ctx, txSigner.Hash(tx).Bytes())
			if err != nil {
				return nil, err
			}
			return tx.WithSignature(txSigner, sig)
		},
	}
}
