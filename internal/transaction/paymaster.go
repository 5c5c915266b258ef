package transaction

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/asgarovf/smart-wallet/internal/contract"
)

// GeneralPaymasterParams returns paymaster params using the "General" flow.
func GeneralPaymasterParams(paymaster common.Address, innerInput []byte) (*PaymasterParams, error) {
	if innerInput == nil {
		innerInput = []byte{}
	}
	input, err := contract.PaymasterFlowABI.Pack("general", innerInput)
	if err != nil {
		return nil, fmt.Errorf("failed to encode general paymaster input: %w", err)
	}
	return &PaymasterParams{Paymaster: paymaster, PaymasterInput: input}, nil
}

// ApprovalBasedPaymasterParams returns paymaster params using the "ApprovalBased" flow.
func ApprovalBasedPaymasterParams(paymaster, token common.Address, minAllowance *big.Int, innerInput []byte) (*PaymasterParams, error) {
	if innerInput == nil {
		innerInput = []byte{}
	}
	input, err := contract.PaymasterFlowABI.Pack("approvalBased", token, bigOrZero(minAllowance), innerInput)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approval based paymaster input: %w", err)
	}
	return &PaymasterParams{Paymaster: paymaster, PaymasterInput: input}, nil
}
