package transaction

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Serialize returns the 0x71 wire encoding of req, ready for eth_sendRawTransaction.
func Serialize(req *Request) ([]byte, error) {
	if req.ChainID == nil {
		return nil, errors.New("chain id is required")
	}

	var to []byte
	if req.To != nil {
		to = req.To.Bytes()
	}

	deps := req.CustomData.FactoryDeps
	if deps == nil {
		deps = [][]byte{}
	}

	var paymaster []interface{}
	if pp := req.CustomData.PaymasterParams; pp != nil {
		paymaster = []interface{}{pp.Paymaster, pp.PaymasterInput}
	} else {
		paymaster = []interface{}{}
	}

	fields := []interface{}{
		req.Nonce,
		bigOrZero(req.MaxPriorityFeePerGas),
		bigOrZero(req.MaxFeePerGas),
		req.GasLimit,
		to,
		bigOrZero(req.Value),
		req.Data,
		// Signature slot of a plain EIP-712 tx; smart accounts use customSignature.
		req.ChainID,
		[]byte{},
		[]byte{},
		req.ChainID,
		req.From,
		req.gasPerPubdata(),
		deps,
		req.CustomData.CustomSignature,
		paymaster,
	}

	payload, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to rlp encode transaction: %w", err)
	}
	return append([]byte{EIP712TxType}, payload...), nil
}
